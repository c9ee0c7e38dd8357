// Package signature decodes JVM type descriptors and generic signatures into
// canonical Java type names.
package signature

import "strings"

// Kind classifies a decoded type
type Kind int

const (
	KindPrimitive Kind = iota
	KindClass
	KindArray
	KindTypeVariable
	KindWildcard
)

// Wildcard bounds
const (
	BoundAny   = '*' // ?
	BoundUpper = '+' // ? extends T
	BoundLower = '-' // ? super T
)

// Type is a node of the decoded type tree
type Type struct {
	Kind Kind

	// Primitive name, dotted class name (inner classes joined with '$'),
	// or type variable name
	Name string

	// Class type arguments
	Args []*Type

	// Array component or wildcard bound
	Elem *Type

	// Wildcard bound kind
	Bound byte
}

// MethodType is a decoded method descriptor or signature
type MethodType struct {
	TypeParams []string
	Params     []*Type
	Return     *Type
}

var primitives = map[byte]string{
	'Z': "boolean",
	'B': "byte",
	'C': "char",
	'S': "short",
	'I': "int",
	'F': "float",
	'D': "double",
	'J': "long",
	'V': "void",
}

// IsPrimitive reports whether a canonical type name is one of the eight
// primitive value types
func IsPrimitive(name string) bool {
	switch name {
	case "boolean", "byte", "char", "short", "int", "float", "double", "long":
		return true
	}
	return false
}

// String returns the canonical name, e.g. "java.util.List<java.lang.String>"
func (t *Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	switch t.Kind {
	case KindArray:
		t.Elem.write(b)
		b.WriteString("[]")
	case KindWildcard:
		switch t.Bound {
		case BoundUpper:
			b.WriteString("? extends ")
			t.Elem.write(b)
		case BoundLower:
			b.WriteString("? super ")
			t.Elem.write(b)
		default:
			b.WriteString("?")
		}
	default:
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, arg := range t.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				arg.write(b)
			}
			b.WriteByte('>')
		}
	}
}

// Erasure returns the canonical name without type arguments. Type variables
// and unbounded wildcards erase to java.lang.Object.
func (t *Type) Erasure() string {
	switch t.Kind {
	case KindArray:
		return t.Elem.Erasure() + "[]"
	case KindTypeVariable:
		return "java.lang.Object"
	case KindWildcard:
		if t.Bound == BoundUpper {
			return t.Elem.Erasure()
		}
		return "java.lang.Object"
	}
	return t.Name
}

// Unwrap strips a wildcard, returning its bound. An unbounded wildcard
// unwraps to java.lang.Object.
func (t *Type) Unwrap() *Type {
	if t.Kind != KindWildcard {
		return t
	}
	if t.Elem == nil {
		return &Type{Kind: KindClass, Name: "java.lang.Object"}
	}
	return t.Elem
}

// Is reports whether the erasure of t names the given class
func (t *Type) Is(className string) bool {
	return t.Kind == KindClass && t.Name == className
}
