package analyzer

import (
	"strings"

	"route-recon/internal/annotation"
	"route-recon/internal/classparser"
)

// MethodSet is an insertion-ordered map of method signature key to method.
// Replacing an existing key keeps its original position.
type MethodSet struct {
	keys    []string
	methods map[string]*classparser.Method
}

func newMethodSet() *MethodSet {
	return &MethodSet{methods: make(map[string]*classparser.Method)}
}

func (s *MethodSet) put(key string, m *classparser.Method) {
	if _, ok := s.methods[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.methods[key] = m
}

// Methods returns the methods in order
func (s *MethodSet) Methods() []*classparser.Method {
	methods := make([]*classparser.Method, len(s.keys))
	for i, key := range s.keys {
		methods[i] = s.methods[key]
	}
	return methods
}

// Len returns the number of methods
func (s *MethodSet) Len() int {
	return len(s.keys)
}

// SignatureKey identifies a method by name and parameter shape, ignoring the
// return type: "find(Ljava/lang/String;)"
func SignatureKey(m *classparser.Method) string {
	if i := strings.IndexByte(m.Desc, ')'); i >= 0 {
		return m.Name + m.Desc[:i+1]
	}
	return m.Name + m.Desc
}

// EffectiveMethods collects the router methods of a class hierarchy, given
// most-derived first. The chain is walked from the root down so the
// most-derived declaration of a signature wins. Methods without a verb or path marker and
// compiler-generated bridges are discarded.
func EffectiveMethods(chain []*classparser.JavaClass) *MethodSet {
	set := newMethodSet()
	for i := len(chain) - 1; i >= 0; i-- {
		for _, m := range chain[i].Methods {
			if m.IsSynthetic() || !annotation.IsRouter(m.Annotations) {
				continue
			}
			set.put(SignatureKey(m), m)
		}
	}
	return set
}
