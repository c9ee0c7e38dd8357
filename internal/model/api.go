package model

import "strings"

// SourceKind is where an operation argument is read from
type SourceKind string

const (
	SourceContext SourceKind = "context"
	SourceHeader  SourceKind = "header"
	SourceCookie  SourceKind = "cookie"
	SourcePath    SourceKind = "path"
	SourceQuery   SourceKind = "query"
	SourceForm    SourceKind = "form"
	SourceBody    SourceKind = "body"
)

// Content types used for request bodies
const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

// Mount is one entry of the extraction worklist: a controller type registered
// by the application, optionally under a path prefix.
type Mount struct {
	// Fully qualified controller type (e.g., "com.example.UserController")
	ControllerType string

	// Path prefix the controller is mounted under ("" when none)
	PathPrefix string
}

// Operation represents one resolved (verb, path) route of a controller method.
// Operations are built once and never mutated afterwards; operations that
// come from the same method share Parameters, RequestBody and Response.
type Operation struct {
	// HTTP verb (GET, POST, PUT, DELETE, ...)
	Verb string

	// Full path pattern including mount and class prefixes (e.g., "/users/{id}")
	Pattern string

	// Variables declared by Pattern, in order of appearance
	PathKeys []string

	// Externally supplied parameters (header, cookie, path, query)
	Parameters []Parameter

	// Request body, nil when the method takes none
	RequestBody *RequestBody

	// Response of the method
	Response Response

	// Operation identifier, derived from the method name
	OperationID string

	// Deprecated is set when the method carries a deprecation marker
	Deprecated bool

	// Controller class (dotted name) that owns the method
	Controller string

	// Method name and raw descriptor of the controller method
	MethodName string
	Descriptor string

	// Media types declared by produces/consumes markers
	Produces []string
	Consumes []string
}

// Parameter represents an externally visible operation argument
type Parameter struct {
	// Parameter name (marker literal or declared name)
	Name string

	// Canonical Java type (e.g., "java.lang.String", "int")
	Type string

	// Where the parameter comes from
	In SourceKind

	// Whether the parameter is required
	Required bool
}

// RequestBody describes the body of an operation. Exactly one of Type or
// Schema is set: Type for a single body value or form bean, Schema for
// fields aggregated from individual form parameters.
type RequestBody struct {
	// Canonical Java type of the body value
	Type string

	// Aggregated object schema for individual form fields
	Schema *Schema

	// Whether the body is required
	Required bool

	// Media type of the body
	ContentType string
}

// Response represents what the operation produces
type Response struct {
	// Canonical Java types produced (normally exactly one)
	Types []string
}

// Schema is a minimal documentation schema used for synthesized form objects
type Schema struct {
	// Schema type: "object", "string", "integer", "number", "boolean", "array"
	Type string

	// Format qualifier (int32, int64, float, double, binary, date-time, ...)
	Format string

	// Element schema for arrays
	Items *Schema

	// Properties of an object schema, in declaration order
	Properties []Property

	// Required property names of an object schema
	Required []string

	// Java type the schema was derived from, when any
	JavaType string
}

// Property is a named object schema member
type Property struct {
	Name   string
	Schema *Schema
}

// Lookup finds a property schema by name
func (s *Schema) Lookup(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// SimpleName returns a type name with package qualifiers removed, keeping type arguments
// e.g., "java.util.List<java.lang.String>" -> "List<String>"
func SimpleName(typeName string) string {
	var b strings.Builder
	start := 0
	for i, r := range typeName {
		if r == '<' || r == '>' || r == ',' {
			b.WriteString(simpleSegment(typeName[start:i]))
			b.WriteRune(r)
			start = i + 1
		}
	}
	b.WriteString(simpleSegment(typeName[start:]))
	return b.String()
}

func simpleSegment(s string) string {
	trimmed := strings.TrimLeft(s, " ")
	lead := s[:len(s)-len(trimmed)]
	for _, wildcard := range []string{"? extends ", "? super "} {
		if strings.HasPrefix(trimmed, wildcard) {
			lead += wildcard
			trimmed = trimmed[len(wildcard):]
			break
		}
	}
	if i := strings.LastIndexAny(trimmed, ".$"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return lead + trimmed
}
