package common

import (
	"sort"

	"route-recon/internal/annotation"
	"route-recon/internal/model"
)

// SortOperations returns a copy of ops ordered by controller, then path
// pattern, then verb in canonical order (GET, POST, PUT, ...).
// The input slice is left untouched: operations are never mutated by reports.
func SortOperations(ops []*model.Operation) []*model.Operation {
	sorted := make([]*model.Operation, len(ops))
	copy(sorted, ops)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Controller != b.Controller {
			return a.Controller < b.Controller
		}
		if a.Pattern != b.Pattern {
			return a.Pattern < b.Pattern
		}
		return verbRank(a.Verb) < verbRank(b.Verb)
	})
	return sorted
}

func verbRank(verb string) int {
	for i, v := range annotation.HTTPMethods {
		if v == verb {
			return i
		}
	}
	return len(annotation.HTTPMethods)
}
