package annotation

import (
	"fmt"
	"strings"

	"route-recon/internal/classparser"
)

// Find returns the annotations that belong to the marker, in declaration order
func Find(anns []classparser.Annotation, m Marker) []classparser.Annotation {
	var found []classparser.Annotation
	for _, a := range anns {
		if m.Matches(a.TypeName()) {
			found = append(found, a)
		}
	}
	return found
}

// Has reports whether any annotation belongs to the marker
func Has(anns []classparser.Annotation, m Marker) bool {
	for _, a := range anns {
		if m.Matches(a.TypeName()) {
			return true
		}
	}
	return false
}

// Value returns the first non-blank "value" attribute among the annotations
// that belong to the marker
func Value(anns []classparser.Annotation, m Marker) (string, bool) {
	for _, a := range Find(anns, m) {
		for _, v := range Strings(a, "value") {
			return v, true
		}
	}
	return "", false
}

// Strings returns the non-blank string values of an attribute, flattening
// array values. Values are trimmed.
func Strings(a classparser.Annotation, attr string) []string {
	raw, ok := a.Attributes[attr]
	if !ok {
		return nil
	}
	var values []string
	appendValue := func(v interface{}) {
		var s string
		switch v := v.(type) {
		case string:
			s = v
		case classparser.EnumValue:
			s = v.Name
		case nil:
			return
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	if list, isList := raw.([]interface{}); isList {
		for _, v := range list {
			appendValue(v)
		}
	} else {
		appendValue(raw)
	}
	return values
}

// IsRouter reports whether the annotations carry a verb or path marker
func IsRouter(anns []classparser.Annotation) bool {
	for _, a := range anns {
		if _, ok := canonicalVerb(a.TypeName()); ok {
			return true
		}
	}
	return false
}

// Verbs returns the de-duplicated verbs declared by the annotations in
// declaration order. A lone bare path marker means GET; a bare path marker
// next to a real verb is dropped.
func Verbs(anns []classparser.Annotation) []string {
	var verbs []string
	seen := make(map[string]bool)
	for _, a := range anns {
		verb, ok := canonicalVerb(a.TypeName())
		if !ok || seen[verb] {
			continue
		}
		seen[verb] = true
		verbs = append(verbs, verb)
	}

	if len(verbs) == 1 && verbs[0] == PathName {
		return []string{"GET"}
	}
	result := verbs[:0]
	for _, v := range verbs {
		if v != PathName {
			result = append(result, v)
		}
	}
	return result
}

// Patterns resolves the path templates declared for a verb:
// (1) the Jooby verb marker's own value/path, (2) the Jooby Path marker,
// (3) the JAX-RS/Jakarta Path marker. The first step that yields a
// non-blank template wins; nil means no match at any step.
func Patterns(anns []classparser.Annotation, verb string) []string {
	steps := []struct {
		marker Marker
		attrs  []string
	}{
		{JoobyVerb(verb), []string{"value", "path"}},
		{JoobyPath, []string{"value"}},
		{SecondaryPath, []string{"value"}},
	}

	for _, step := range steps {
		var patterns []string
		for _, a := range Find(anns, step.marker) {
			for _, attr := range step.attrs {
				if values := Strings(a, attr); len(values) > 0 {
					patterns = append(patterns, values...)
					break
				}
			}
		}
		if len(patterns) > 0 {
			return patterns
		}
	}
	return nil
}

// SourceOf returns the parameter source of the first annotation that matches
// a catalog entry, or Body when none does
func SourceOf(anns []classparser.Annotation) Source {
	for _, a := range anns {
		name := a.TypeName()
		for _, src := range Sources {
			if src.Matches(name) {
				return src
			}
		}
	}
	return Body
}

// BindingName returns the literal name given by the source marker or a
// Named marker, whichever comes first with a non-blank value
func BindingName(anns []classparser.Annotation, src Source) (string, bool) {
	names := Marker{Name: src.Name, Types: append(append([]string{}, src.Types...), Named.Types...)}
	return Value(anns, names)
}

// IsNullable reports whether a parameter carries a nullability marker
func IsNullable(p classparser.Param) bool {
	return Has(p.Annotations, Nullable) || Has(p.InvisibleAnnotations, Nullable)
}

// IsDeprecated reports whether the annotations carry a deprecation marker
func IsDeprecated(anns []classparser.Annotation) bool {
	return Has(anns, Deprecated)
}

// MediaTypes returns the media types declared by a Produces/Consumes marker
func MediaTypes(anns []classparser.Annotation, m Marker) []string {
	var types []string
	for _, a := range Find(anns, m) {
		types = append(types, Strings(a, "value")...)
	}
	return types
}
