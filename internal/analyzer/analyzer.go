package analyzer

import (
	"context"

	"route-recon/internal/classparser"
	"route-recon/internal/model"
)

// Analyzer is the main interface for extracting routes from compiled controllers
type Analyzer interface {
	// Extract resolves every mount and returns the operations they register,
	// concatenated in mount order. Any fatal error aborts the whole pass.
	Extract(ctx context.Context, mounts []model.Mount) ([]*model.Operation, error)
}

// ClassLoader resolves parsed classes and their superclass chains
type ClassLoader interface {
	// Resolve returns the parsed class for a dotted or internal type name
	Resolve(typeName string) (*classparser.JavaClass, error)

	// Hierarchy returns the class followed by its superclasses, most-derived first
	Hierarchy(jc *classparser.JavaClass) ([]*classparser.JavaClass, error)
}

// Observer is notified as the extraction pass makes progress
type Observer interface {
	// MountProcessed is called once per mount with the operations it produced
	MountProcessed(mount model.Mount, ops []*model.Operation)
}

// Observers fans notifications out to several observers
type Observers []Observer

func (o Observers) MountProcessed(mount model.Mount, ops []*model.Operation) {
	for _, observer := range o {
		if observer != nil {
			observer.MountProcessed(mount, ops)
		}
	}
}

// Options holds configuration for the extractor
type Options struct {
	// Parallelism is the number of mounts processed concurrently (1 = sequential)
	Parallelism int

	// NullableByDefault treats parameters of methods without nullability
	// metadata as nullable instead of required
	NullableByDefault bool

	// ExcludeController skips mounts whose controller simple name matches
	ExcludeController func(simpleName string) bool
}

// DefaultOptions returns the default extractor configuration
func DefaultOptions() Options {
	return Options{
		Parallelism:       1,
		NullableByDefault: false,
	}
}
