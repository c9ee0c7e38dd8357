// Package annotation matches compiled annotations against the fixed catalog
// of routing markers and extracts their literal values.
package annotation

import (
	"route-recon/internal/model"
)

// Vocabulary packages
const (
	JoobyPackage   = "io.jooby.annotations"
	JaxRSPackage   = "javax.ws.rs"
	JakartaPackage = "jakarta.ws.rs"
)

// HTTPMethods lists the recognized verbs in canonical order
var HTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

// PathName is the canonical name of a bare path marker in a verb set
const PathName = "Path"

// Marker is a catalog entry: a named set of annotation class names
type Marker struct {
	Name  string
	Types []string
}

// Matches reports whether an annotation class name belongs to the marker
func (m Marker) Matches(typeName string) bool {
	for _, t := range m.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// Source is a parameter-source catalog entry
type Source struct {
	Marker

	// Kind the parameter is read from
	Kind model.SourceKind

	// AlwaysRequired forces required=true (path variables)
	AlwaysRequired bool
}

func inVocabularies(simpleName string, packages ...string) []string {
	types := make([]string, 0, len(packages))
	for _, pkg := range packages {
		types = append(types, pkg+"."+simpleName)
	}
	return types
}

var (
	// JoobyPath is the primary path marker
	JoobyPath = Marker{Name: PathName, Types: []string{JoobyPackage + ".Path"}}

	// SecondaryPath is the framework-neutral path marker, tried after JoobyPath
	SecondaryPath = Marker{Name: PathName, Types: inVocabularies("Path", JaxRSPackage, JakartaPackage)}

	// Named contributes a binding name to any parameter source
	Named = Marker{Name: "Named", Types: []string{"javax.inject.Named", "jakarta.inject.Named"}}

	// Nullable markers, checked in visible and invisible parameter annotations
	Nullable = Marker{Name: "Nullable", Types: []string{
		"org.jetbrains.annotations.Nullable",
		"javax.annotation.Nullable",
		"jakarta.annotation.Nullable",
		"org.jspecify.annotations.Nullable",
		"androidx.annotation.Nullable",
	}}

	// Deprecated markers
	Deprecated = Marker{Name: "Deprecated", Types: []string{"java.lang.Deprecated", "kotlin.Deprecated"}}

	// Produces and Consumes declare route media types
	Produces = Marker{Name: "Produces", Types: inVocabularies("Produces", JoobyPackage, JaxRSPackage, JakartaPackage)}
	Consumes = Marker{Name: "Consumes", Types: inVocabularies("Consumes", JoobyPackage, JaxRSPackage, JakartaPackage)}
)

// Sources is the parameter-source catalog in match priority order.
// BODY has no marker: it is the default.
var Sources = []Source{
	{Marker: Marker{Name: "ContextParam", Types: []string{JoobyPackage + ".ContextParam"}}, Kind: model.SourceContext},
	{Marker: Marker{Name: "HeaderParam", Types: inVocabularies("HeaderParam", JoobyPackage, JaxRSPackage, JakartaPackage)}, Kind: model.SourceHeader},
	{Marker: Marker{Name: "CookieParam", Types: inVocabularies("CookieParam", JoobyPackage, JaxRSPackage, JakartaPackage)}, Kind: model.SourceCookie},
	{Marker: Marker{Name: "PathParam", Types: inVocabularies("PathParam", JoobyPackage, JaxRSPackage, JakartaPackage)}, Kind: model.SourcePath, AlwaysRequired: true},
	{Marker: Marker{Name: "QueryParam", Types: inVocabularies("QueryParam", JoobyPackage, JaxRSPackage, JakartaPackage)}, Kind: model.SourceQuery},
	{Marker: Marker{Name: "FormParam", Types: inVocabularies("FormParam", JoobyPackage, JaxRSPackage, JakartaPackage)}, Kind: model.SourceForm},
}

// Body is the default source when no marker matches
var Body = Source{Marker: Marker{Name: "Body"}, Kind: model.SourceBody}

// verbMarkers maps each verb to its marker across all vocabularies
var verbMarkers = func() map[string]Marker {
	markers := make(map[string]Marker, len(HTTPMethods))
	for _, verb := range HTTPMethods {
		markers[verb] = Marker{Name: verb, Types: inVocabularies(verb, JoobyPackage, JaxRSPackage, JakartaPackage)}
	}
	return markers
}()

// JoobyVerb returns the Jooby marker of a verb, whose own value carries a path
func JoobyVerb(verb string) Marker {
	return Marker{Name: verb, Types: []string{JoobyPackage + "." + verb}}
}

// canonicalVerb maps an annotation class name to a verb name, or PathName for
// a bare path marker. ok is false when the annotation is not a routing marker.
func canonicalVerb(typeName string) (string, bool) {
	if JoobyPath.Matches(typeName) || SecondaryPath.Matches(typeName) {
		return PathName, true
	}
	for _, verb := range HTTPMethods {
		if verbMarkers[verb].Matches(typeName) {
			return verb, true
		}
	}
	return "", false
}
