// Package schema maps canonical Java type names to documentation schemas.
package schema

import (
	"strings"

	"route-recon/internal/model"
)

// Schema types
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

type scalar struct {
	typ    string
	format string
}

var scalars = map[string]scalar{
	"boolean":           {TypeBoolean, ""},
	"java.lang.Boolean": {TypeBoolean, ""},

	"byte":              {TypeInteger, "int32"},
	"short":             {TypeInteger, "int32"},
	"int":               {TypeInteger, "int32"},
	"java.lang.Byte":    {TypeInteger, "int32"},
	"java.lang.Short":   {TypeInteger, "int32"},
	"java.lang.Integer": {TypeInteger, "int32"},

	"long":                 {TypeInteger, "int64"},
	"java.lang.Long":       {TypeInteger, "int64"},
	"java.math.BigInteger": {TypeInteger, ""},

	"float":                {TypeNumber, "float"},
	"double":               {TypeNumber, "double"},
	"java.lang.Float":      {TypeNumber, "float"},
	"java.lang.Double":     {TypeNumber, "double"},
	"java.math.BigDecimal": {TypeNumber, ""},
	"java.lang.Number":     {TypeNumber, ""},

	"char":                   {TypeString, ""},
	"java.lang.Character":    {TypeString, ""},
	"java.lang.String":       {TypeString, ""},
	"java.lang.CharSequence": {TypeString, ""},
	"java.util.UUID":         {TypeString, "uuid"},
	"java.net.URI":           {TypeString, "uri"},
	"java.net.URL":           {TypeString, "uri"},

	"java.time.LocalDate":      {TypeString, "date"},
	"java.time.LocalDateTime":  {TypeString, "date-time"},
	"java.time.OffsetDateTime": {TypeString, "date-time"},
	"java.time.ZonedDateTime":  {TypeString, "date-time"},
	"java.time.Instant":        {TypeString, "date-time"},
	"java.util.Date":           {TypeString, "date-time"},
	"java.time.Duration":       {TypeString, "duration"},

	"io.jooby.FileUpload":  {TypeString, "binary"},
	"java.io.File":         {TypeString, "binary"},
	"java.io.InputStream":  {TypeString, "binary"},
	"java.nio.file.Path":   {TypeString, "binary"},
	"java.nio.ByteBuffer":  {TypeString, "binary"},
	"byte[]":               {TypeString, "binary"},
	"kotlin.ByteArray":     {TypeString, "binary"},
	"jakarta.servlet.Part": {TypeString, "binary"},
	"javax.servlet.Part":   {TypeString, "binary"},

	"kotlin.String":         {TypeString, ""},
	"kotlin.Int":            {TypeInteger, "int32"},
	"kotlin.Long":           {TypeInteger, "int64"},
	"kotlin.Boolean":        {TypeBoolean, ""},
	"kotlin.Double":         {TypeNumber, "double"},
	"kotlin.Float":          {TypeNumber, "float"},
	"java.util.OptionalInt": {TypeInteger, "int32"},
}

var collections = map[string]bool{
	"java.lang.Iterable":       true,
	"java.util.Collection":     true,
	"java.util.List":           true,
	"java.util.ArrayList":      true,
	"java.util.LinkedList":     true,
	"java.util.Set":            true,
	"java.util.HashSet":        true,
	"java.util.LinkedHashSet":  true,
	"java.util.SortedSet":      true,
	"java.util.TreeSet":        true,
	"java.util.stream.Stream":  true,
	"kotlin.collections.List":  true,
	"kotlin.collections.Set":   true,
	"kotlin.collections.Array": true,
}

var maps = map[string]bool{
	"java.util.Map":                           true,
	"java.util.HashMap":                       true,
	"java.util.LinkedHashMap":                 true,
	"java.util.TreeMap":                       true,
	"java.util.SortedMap":                     true,
	"kotlin.collections.Map":                  true,
	"io.jooby.Formdata":                       true,
	"io.jooby.ValueNode":                      true,
	"com.fasterxml.jackson.databind.JsonNode": true,
}

var wrappers = map[string]bool{
	"java.util.Optional":                     true,
	"java.util.concurrent.CompletableFuture": true,
	"java.util.concurrent.CompletionStage":   true,
	"java.util.concurrent.Callable":          true,
}

// For returns the documentation schema of a canonical Java type name.
// Object schemas of user types carry the Java type in JavaType.
func For(javaType string) *model.Schema {
	javaType = strings.TrimSpace(javaType)

	if s, ok := scalars[javaType]; ok {
		return &model.Schema{Type: s.typ, Format: s.format}
	}

	if strings.HasSuffix(javaType, "[]") {
		return &model.Schema{Type: TypeArray, Items: For(strings.TrimSuffix(javaType, "[]"))}
	}

	base, args := Split(javaType)
	switch {
	case collections[base]:
		items := &model.Schema{Type: TypeObject}
		if len(args) > 0 {
			items = For(args[0])
		}
		return &model.Schema{Type: TypeArray, Items: items}
	case maps[base]:
		return &model.Schema{Type: TypeObject}
	case wrappers[base] && len(args) == 1:
		return For(args[0])
	case base == "java.lang.Object" || isTypeVariable(base):
		return &model.Schema{Type: TypeObject}
	}

	if s, ok := scalars[base]; ok {
		return &model.Schema{Type: s.typ, Format: s.format}
	}
	return &model.Schema{Type: TypeObject, JavaType: javaType}
}

// IsFormBean reports whether a form parameter type is an object-representable
// user type, documented as a multipart body instead of a single field
func IsFormBean(javaType string) bool {
	s := For(javaType)
	return s.Type == TypeObject && s.JavaType != ""
}

// Split separates a canonical generic type name into its raw name and type
// arguments. Wildcards are reduced to their bound.
func Split(javaType string) (string, []string) {
	open := strings.IndexByte(javaType, '<')
	if open < 0 || !strings.HasSuffix(javaType, ">") {
		return unwildcard(javaType), nil
	}
	base := javaType[:open]
	inner := javaType[open+1 : len(javaType)-1]

	var args []string
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, unwildcard(inner[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, unwildcard(inner[start:]))
	return base, args
}

func unwildcard(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range []string{"? extends ", "? super "} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimSpace(name[len(prefix):])
		}
	}
	if name == "?" {
		return "java.lang.Object"
	}
	return name
}

// isTypeVariable treats undotted names that are not primitives as type variables
func isTypeVariable(name string) bool {
	return name != "" && !strings.Contains(name, ".")
}
