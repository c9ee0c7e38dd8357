package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"route-recon/internal/config"
	"route-recon/internal/logger"
	"route-recon/internal/model"
	"route-recon/internal/schema"
)

// Version is the OpenAPI version of generated documents
const Version = "3.0.3"

// OpenAPIExporter writes an OpenAPI document describing the operations
type OpenAPIExporter struct {
	// Stateless
}

func NewOpenAPIExporter() *OpenAPIExporter {
	return &OpenAPIExporter{}
}

// Export writes <file_name>.openapi.json and <file_name>.openapi.yaml
func (b *OpenAPIExporter) Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error {
	doc := Build(summary, ops)

	if err := doc.Validate(context.Background()); err != nil {
		logger.Warn("Generated OpenAPI document is not strictly valid: %v", err)
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode openapi json: %w", err)
	}
	if err := os.WriteFile(cfg.GetOutputPath(".openapi.json"), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write openapi json: %w", err)
	}

	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode openapi yaml: %w", err)
	}
	if err := os.WriteFile(cfg.GetOutputPath(".openapi.yaml"), yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write openapi yaml: %w", err)
	}
	return nil
}

// Build assembles the OpenAPI document for a list of operations
func Build(summary *model.Summary, ops []*model.Operation) *openapi3.T {
	title, version := "API", "1.0.0"
	if summary != nil {
		if summary.ProjectName != "" {
			title = summary.ProjectName
		}
		if summary.ProjectVersion != "" {
			version = summary.ProjectVersion
		}
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	b := &builder{doc: doc, operationIDs: make(map[string]int), tags: make(map[string]bool)}
	for _, op := range ops {
		b.addOperation(op)
	}

	names := make([]string, 0, len(b.tags))
	for name := range b.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: name})
	}
	return doc
}

type builder struct {
	doc          *openapi3.T
	operationIDs map[string]int
	tags         map[string]bool
}

// methods lists the verbs a path item can hold
var methods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodHead: true,
	http.MethodOptions: true, http.MethodTrace: true, http.MethodConnect: true,
}

func (b *builder) addOperation(op *model.Operation) {
	if !methods[op.Verb] {
		logger.Warn("Skipping %s %s: verb has no OpenAPI equivalent", op.Verb, op.Pattern)
		return
	}
	path := Template(op.Pattern)
	item := b.doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		b.doc.Paths.Set(path, item)
	}

	tag := model.SimpleName(op.Controller)
	b.tags[tag] = true

	spec := openapi3.NewOperation()
	spec.OperationID = b.uniqueOperationID(op.OperationID)
	spec.Summary = fmt.Sprintf("%s.%s", tag, op.MethodName)
	spec.Tags = []string{tag}
	spec.Deprecated = op.Deprecated

	declared := make(map[string]bool)
	for _, p := range op.Parameters {
		param := newParameter(p.In, p.Name)
		if param == nil {
			continue
		}
		param.Required = p.Required || p.In == model.SourcePath
		param.Schema = b.schemaRef(schema.For(p.Type))
		spec.AddParameter(param)
		if p.In == model.SourcePath {
			declared[p.Name] = true
		}
	}
	// Path variables that no argument binds are still part of the template
	for _, key := range templateKeys(path) {
		if !declared[key] {
			param := openapi3.NewPathParameter(key).WithSchema(openapi3.NewStringSchema())
			spec.AddParameter(param)
			declared[key] = true
		}
	}

	if body := op.RequestBody; body != nil {
		s := body.Schema
		if s == nil {
			s = schema.For(body.Type)
		}
		spec.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(body.Required).
			WithContent(openapi3.NewContentWithSchemaRef(b.schemaRef(s), contentTypes(body.ContentType, op.Consumes)))}
	}

	spec.Responses = openapi3.NewResponses(openapi3.WithStatus(200, &openapi3.ResponseRef{Value: b.response(op)}))
	item.SetOperation(op.Verb, spec)
}

func (b *builder) response(op *model.Operation) *openapi3.Response {
	resp := openapi3.NewResponse().WithDescription("Success")
	if len(op.Response.Types) == 0 || op.Response.Types[0] == "void" {
		return resp
	}
	produces := op.Produces
	if len(produces) == 0 {
		produces = []string{model.ContentTypeJSON}
	}
	return resp.WithContent(openapi3.NewContentWithSchemaRef(b.schemaRef(schema.For(op.Response.Types[0])), produces))
}

// uniqueOperationID suffixes repeated ids with a counter: get, get2, get3
func (b *builder) uniqueOperationID(id string) string {
	b.operationIDs[id]++
	if n := b.operationIDs[id]; n > 1 {
		return id + strconv.Itoa(n)
	}
	return id
}

// schemaRef converts a schema, registering user types as components
func (b *builder) schemaRef(s *model.Schema) *openapi3.SchemaRef {
	if s == nil {
		return openapi3.NewSchemaRef("", openapi3.NewObjectSchema())
	}
	if s.JavaType != "" && s.Type == schema.TypeObject && len(s.Properties) == 0 {
		name := componentName(s.JavaType)
		component, ok := b.doc.Components.Schemas[name]
		if !ok {
			value := openapi3.NewObjectSchema()
			value.Description = s.JavaType
			component = openapi3.NewSchemaRef("", value)
			b.doc.Components.Schemas[name] = component
		}
		return openapi3.NewSchemaRef("#/components/schemas/"+name, component.Value)
	}

	value := &openapi3.Schema{
		Type:     &openapi3.Types{s.Type},
		Format:   s.Format,
		Required: s.Required,
	}
	if s.Items != nil {
		value.Items = b.schemaRef(s.Items)
	}
	if len(s.Properties) > 0 {
		value.Properties = make(openapi3.Schemas, len(s.Properties))
		for _, p := range s.Properties {
			value.Properties[p.Name] = b.schemaRef(p.Schema)
		}
	}
	return openapi3.NewSchemaRef("", value)
}

func newParameter(in model.SourceKind, name string) *openapi3.Parameter {
	switch in {
	case model.SourcePath:
		return openapi3.NewPathParameter(name)
	case model.SourceQuery:
		return openapi3.NewQueryParameter(name)
	case model.SourceHeader:
		return openapi3.NewHeaderParameter(name)
	case model.SourceCookie:
		return openapi3.NewCookieParameter(name)
	}
	return nil
}

func contentTypes(contentType string, consumes []string) []string {
	if contentType == model.ContentTypeMultipart || len(consumes) == 0 {
		return []string{contentType}
	}
	return consumes
}

// componentName turns "com.example.Page<com.example.User>" into "PageUser"
func componentName(javaType string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ',', ' ', '?', '[', ']':
			return -1
		}
		return r
	}, model.SimpleName(javaType))
}

// Template rewrites a route pattern into an OpenAPI path template:
// {id:[0-9]+} becomes {id}, :id becomes {id} and *name becomes {name}
func Template(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '{':
			depth, end := 1, i+1
			for ; end < len(pattern) && depth > 0; end++ {
				switch pattern[end] {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			body := pattern[i+1 : end-1]
			if depth != 0 {
				body = pattern[i+1:]
			}
			if colon := strings.IndexByte(body, ':'); colon >= 0 {
				body = body[:colon]
			}
			b.WriteString("{" + strings.TrimSpace(body) + "}")
			i = end - 1
		case (c == ':' || c == '*') && (i == 0 || pattern[i-1] == '/'):
			end := strings.IndexByte(pattern[i:], '/')
			if end < 0 {
				end = len(pattern) - i
			}
			name := pattern[i+1 : i+end]
			if name == "" {
				b.WriteByte(c)
			} else {
				b.WriteString("{" + name + "}")
			}
			i += end - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func templateKeys(path string) []string {
	var keys []string
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			return keys
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return keys
		}
		keys = append(keys, path[open+1:open+end])
		path = path[open+end+1:]
	}
}
