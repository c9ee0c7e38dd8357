package exporter

import (
	"encoding/json"
	"fmt"
	"os"

	"route-recon/internal/config"
	"route-recon/internal/model"
)

// JSONExporter writes the raw operation list, in extraction order
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	Project    string          `json:"project"`
	Version    string          `json:"version"`
	RunID      string          `json:"runId"`
	Date       string          `json:"date"`
	Operations []jsonOperation `json:"operations"`
}

type jsonOperation struct {
	Verb        string          `json:"verb"`
	Pattern     string          `json:"pattern"`
	PathKeys    []string        `json:"pathKeys,omitempty"`
	Parameters  []jsonParameter `json:"parameters,omitempty"`
	RequestBody *jsonBody       `json:"requestBody,omitempty"`
	Response    []string        `json:"response"`
	OperationID string          `json:"operationId"`
	Deprecated  bool            `json:"deprecated,omitempty"`
	Controller  string          `json:"controller"`
	Method      string          `json:"method"`
	Descriptor  string          `json:"descriptor,omitempty"`
	Produces    []string        `json:"produces,omitempty"`
	Consumes    []string        `json:"consumes,omitempty"`
}

type jsonParameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

type jsonBody struct {
	Type        string      `json:"type,omitempty"`
	Schema      *jsonSchema `json:"schema,omitempty"`
	Required    bool        `json:"required"`
	ContentType string      `json:"contentType"`
}

type jsonSchema struct {
	Type       string                 `json:"type"`
	Format     string                 `json:"format,omitempty"`
	Items      *jsonSchema            `json:"items,omitempty"`
	Properties map[string]*jsonSchema `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
	JavaType   string                 `json:"javaType,omitempty"`
}

// Export writes <file_name>.json
func (e *JSONExporter) Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error {
	doc := jsonDocument{
		Project:    summary.ProjectName,
		Version:    summary.ProjectVersion,
		RunID:      summary.RunID,
		Date:       summary.AnalysisDate,
		Operations: make([]jsonOperation, 0, len(ops)),
	}
	for _, op := range ops {
		doc.Operations = append(doc.Operations, toJSONOperation(op))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode operations: %w", err)
	}
	if err := os.WriteFile(cfg.GetOutputPath(".json"), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write json report: %w", err)
	}
	return nil
}

func toJSONOperation(op *model.Operation) jsonOperation {
	out := jsonOperation{
		Verb:        op.Verb,
		Pattern:     op.Pattern,
		PathKeys:    op.PathKeys,
		Response:    op.Response.Types,
		OperationID: op.OperationID,
		Deprecated:  op.Deprecated,
		Controller:  op.Controller,
		Method:      op.MethodName,
		Descriptor:  op.Descriptor,
		Produces:    op.Produces,
		Consumes:    op.Consumes,
	}
	for _, p := range op.Parameters {
		out.Parameters = append(out.Parameters, jsonParameter{
			Name: p.Name, Type: p.Type, In: string(p.In), Required: p.Required,
		})
	}
	if body := op.RequestBody; body != nil {
		out.RequestBody = &jsonBody{
			Type:        body.Type,
			Schema:      toJSONSchema(body.Schema),
			Required:    body.Required,
			ContentType: body.ContentType,
		}
	}
	return out
}

func toJSONSchema(s *model.Schema) *jsonSchema {
	if s == nil {
		return nil
	}
	out := &jsonSchema{
		Type:     s.Type,
		Format:   s.Format,
		Items:    toJSONSchema(s.Items),
		Required: s.Required,
		JavaType: s.JavaType,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*jsonSchema, len(s.Properties))
		for _, p := range s.Properties {
			out.Properties[p.Name] = toJSONSchema(p.Schema)
		}
	}
	return out
}
