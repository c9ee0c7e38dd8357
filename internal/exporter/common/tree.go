package common

import "route-recon/internal/model"

// ControllerGroup is the operations of one controller, for sectioned reports
type ControllerGroup struct {
	Controller string // fully qualified class name
	Package    string
	Name       string // simple class name
	Operations []*model.Operation
}

// GroupByController groups operations by controller in first-seen order,
// keeping the operation order within each group
func GroupByController(ops []*model.Operation) []ControllerGroup {
	var groups []ControllerGroup
	index := make(map[string]int)

	for _, op := range ops {
		i, ok := index[op.Controller]
		if !ok {
			pkg, name := model.SplitClassName(op.Controller)
			groups = append(groups, ControllerGroup{Controller: op.Controller, Package: pkg, Name: name})
			i = len(groups) - 1
			index[op.Controller] = i
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}
	return groups
}
