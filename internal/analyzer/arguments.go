package analyzer

import (
	"errors"
	"fmt"

	"route-recon/internal/annotation"
	"route-recon/internal/classparser"
	"route-recon/internal/model"
	"route-recon/internal/schema"
	"route-recon/internal/signature"
)

// ErrParameterTypeNotFound matches any *ParameterTypeNotFoundError
var ErrParameterTypeNotFound = errors.New("parameter type not found")

// ParameterTypeNotFoundError reports a formal parameter whose declared type
// cannot be recovered from the local-variable table
type ParameterTypeNotFoundError struct {
	Class     string
	Method    string
	Parameter string
}

func (e *ParameterTypeNotFoundError) Error() string {
	return fmt.Sprintf("parameter type not found: %s.%s(%s)", e.Class, e.Method, e.Parameter)
}

// Is makes errors.Is(err, ErrParameterTypeNotFound) match
func (e *ParameterTypeNotFoundError) Is(target error) bool {
	return target == ErrParameterTypeNotFound
}

// enumSuper is the internal name every enum class extends
const enumSuper = "java/lang/Enum"

// continuationParam is the name Kotlin gives the trailing suspend parameter
const continuationParam = "continuation"

// excludedTypes are framework-injected arguments that are not part of the API
var excludedTypes = map[string]bool{
	"io.jooby.Context":                     true,
	"io.jooby.Session":                     true,
	"java.util.Optional<io.jooby.Session>": true,
}

// Arguments is the classified argument list of one controller method
type Arguments struct {
	// Externally supplied parameters, in declaration order
	Parameters []model.Parameter

	// Request body, nil when the method has none
	RequestBody *model.RequestBody
}

// ClassifyArguments walks the formal parameters of m and sorts them into
// operation parameters and the request body. The loader resolves form
// parameter types so enums stay single fields.
func ClassifyArguments(loader ClassLoader, owner *classparser.JavaClass, m *classparser.Method, nullableByDefault bool) (Arguments, error) {
	var (
		args     Arguments
		form     = &model.Schema{Type: schema.TypeObject}
		hasForm  bool
		lastSlot = len(m.Params) - 1
	)

	for i, p := range m.Params {
		lv, ok := localVariable(m, p.Name, i == lastSlot)
		if !ok {
			return Arguments{}, &ParameterTypeNotFoundError{
				Class:     owner.ClassName(),
				Method:    m.Name,
				Parameter: p.Name,
			}
		}

		t, err := signature.DecodeType(lv.Desc, lv.Signature)
		if err != nil {
			return Arguments{}, fmt.Errorf("%s.%s parameter %s: %w", owner.ClassName(), m.Name, p.Name, err)
		}
		javaType := t.String()
		if excludedTypes[javaType] || t.Erasure() == signature.ContinuationType {
			continue
		}

		src := annotation.SourceOf(p.Annotations)
		required := isRequired(m, p, javaType, src, nullableByDefault)
		name := p.Name
		if bound, ok := annotation.BindingName(p.Annotations, src); ok {
			name = bound
		}

		switch src.Kind {
		case model.SourceContext:
			continue
		case model.SourceBody:
			args.RequestBody = &model.RequestBody{
				Type:        javaType,
				Required:    required,
				ContentType: model.ContentTypeJSON,
			}
		case model.SourceForm:
			enum := isEnum(loader, javaType)
			if !enum && schema.IsFormBean(javaType) {
				args.RequestBody = &model.RequestBody{
					Type:        javaType,
					Required:    required,
					ContentType: model.ContentTypeMultipart,
				}
				continue
			}
			field := schema.For(javaType)
			if enum {
				field = &model.Schema{Type: schema.TypeString}
			}
			hasForm = true
			form.Properties = append(form.Properties, model.Property{Name: name, Schema: field})
			if required {
				form.Required = append(form.Required, name)
			}
		default:
			args.Parameters = append(args.Parameters, model.Parameter{
				Name:     name,
				Type:     javaType,
				In:       src.Kind,
				Required: required,
			})
		}
	}

	if hasForm {
		args.RequestBody = &model.RequestBody{
			Schema:      form,
			Required:    len(form.Required) > 0,
			ContentType: model.ContentTypeMultipart,
		}
	}
	return args, nil
}

// isEnum reports whether a type resolves to an enum class. Types missing from
// the classpath are not enums.
func isEnum(loader ClassLoader, javaType string) bool {
	if loader == nil || !schema.IsFormBean(javaType) {
		return false
	}
	raw, _ := schema.Split(javaType)
	jc, err := loader.Resolve(raw)
	if err != nil {
		return false
	}
	return jc.IsEnum() || jc.SuperName == enumSuper
}

// localVariable finds the first local-variable entry declared under the
// parameter name. The trailing continuation of a suspend function may be
// recorded as "$continuation".
func localVariable(m *classparser.Method, name string, last bool) (classparser.LocalVariable, bool) {
	for _, lv := range m.LocalVariables {
		if lv.Name == name {
			return lv, true
		}
		if last && name == continuationParam && lv.Name == "$"+continuationParam {
			return lv, true
		}
	}
	return classparser.LocalVariable{}, false
}

// isRequired applies the required rules: primitives and path variables are
// always required; otherwise a parameter is required unless it is nullable.
// Methods compiled without any class-retained parameter annotations carry
// no nullability metadata, and the policy decides for them.
func isRequired(m *classparser.Method, p classparser.Param, javaType string, src annotation.Source, nullableByDefault bool) bool {
	if signature.IsPrimitive(javaType) || src.AlwaysRequired {
		return true
	}
	if annotation.IsNullable(p) {
		return false
	}
	if nullableByDefault && !m.HasInvisibleParameterAnnotations {
		return false
	}
	return true
}
