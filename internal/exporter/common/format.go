package common

import (
	"fmt"
	"strings"

	"route-recon/internal/model"
)

// ParamsText renders the parameters of an operation, one per line:
// "path id: String (required)"
func ParamsText(op *model.Operation) string {
	lines := make([]string, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		line := fmt.Sprintf("%s %s: %s", p.In, p.Name, model.SimpleName(p.Type))
		if p.Required {
			line += " (required)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// BodyText renders the request body of an operation, "" when there is none
func BodyText(op *model.Operation) string {
	body := op.RequestBody
	if body == nil {
		return ""
	}

	var text string
	if body.Schema != nil {
		fields := make([]string, 0, len(body.Schema.Properties))
		for _, prop := range body.Schema.Properties {
			fields = append(fields, prop.Name+": "+SchemaText(prop.Schema))
		}
		text = "{" + strings.Join(fields, ", ") + "}"
	} else {
		text = model.SimpleName(body.Type)
	}

	text = fmt.Sprintf("%s [%s]", text, body.ContentType)
	if body.Required {
		text += " (required)"
	}
	return text
}

// ResponseText renders the response types of an operation
func ResponseText(op *model.Operation) string {
	names := make([]string, len(op.Response.Types))
	for i, t := range op.Response.Types {
		names[i] = model.SimpleName(t)
	}
	return strings.Join(names, " | ")
}

// SchemaText renders a schema compactly: "integer(int32)", "array<string>"
func SchemaText(s *model.Schema) string {
	if s == nil {
		return ""
	}
	switch {
	case s.Items != nil:
		return "array<" + SchemaText(s.Items) + ">"
	case s.JavaType != "":
		return model.SimpleName(s.JavaType)
	case s.Format != "":
		return s.Type + "(" + s.Format + ")"
	}
	return s.Type
}
