package analyzer

import (
	"route-recon/internal/classparser"
	"route-recon/internal/model"
)

// MethodSpec is everything resolved about one router method before it is
// expanded into operations
type MethodSpec struct {
	Controller string
	Method     *classparser.Method

	// Verbs in declaration order; empty means GET
	Verbs []string

	// Full path patterns per verb; a missing or empty entry means "/"
	PathsByVerb map[string][]string

	Arguments  Arguments
	Response   model.Response
	Deprecated bool
	Produces   []string
	Consumes   []string
}

// BuildOperations expands a method into one operation per (verb, path) pair.
// The operations share parameters, body and response.
func BuildOperations(spec MethodSpec) []*model.Operation {
	verbs := spec.Verbs
	if len(verbs) == 0 {
		verbs = []string{"GET"}
	}

	var ops []*model.Operation
	for _, verb := range verbs {
		paths := spec.PathsByVerb[verb]
		if len(paths) == 0 {
			paths = []string{"/"}
		}
		for _, pattern := range paths {
			ops = append(ops, &model.Operation{
				Verb:        verb,
				Pattern:     pattern,
				PathKeys:    PathKeys(pattern),
				Parameters:  spec.Arguments.Parameters,
				RequestBody: spec.Arguments.RequestBody,
				Response:    spec.Response,
				OperationID: spec.Method.Name,
				Deprecated:  spec.Deprecated,
				Controller:  spec.Controller,
				MethodName:  spec.Method.Name,
				Descriptor:  spec.Method.Desc,
				Produces:    spec.Produces,
				Consumes:    spec.Consumes,
			})
		}
	}
	return ops
}
