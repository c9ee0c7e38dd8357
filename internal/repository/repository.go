// Package repository loads and memoizes parsed classes for one extraction pass.
package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"route-recon/internal/classparser"
	"route-recon/internal/classpath"
	"route-recon/internal/logger"
)

// ObjectClass is the sentinel root of every class hierarchy
const ObjectClass = "java/lang/Object"

var (
	// ErrTypeNotFound matches any *TypeNotFoundError
	ErrTypeNotFound = errors.New("type not found")

	// ErrCyclicHierarchy is returned when a superclass chain revisits a type
	ErrCyclicHierarchy = errors.New("cyclic class hierarchy")
)

// TypeNotFoundError reports a type the classpath cannot supply
type TypeNotFoundError struct {
	TypeName string
	Err      error
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("type not found: %s", strings.ReplaceAll(e.TypeName, "/", "."))
}

func (e *TypeNotFoundError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTypeNotFound) match
func (e *TypeNotFoundError) Is(target error) bool {
	return target == ErrTypeNotFound
}

// LoadObserver is notified of every class actually loaded from the classpath
type LoadObserver interface {
	ClassLoaded(internalName string)
}

// Repository resolves classes by name, loading each at most once. It is safe
// for concurrent use; concurrent requests for the same name share one load.
type Repository struct {
	resolver classpath.Resolver
	observer LoadObserver

	mu      sync.RWMutex
	classes map[string]*classparser.JavaClass
	group   singleflight.Group
}

// New creates a pass-scoped repository over a class resolver
func New(resolver classpath.Resolver) *Repository {
	return &Repository{
		resolver: resolver,
		classes:  make(map[string]*classparser.JavaClass),
	}
}

// WithObserver sets the load observer
func (r *Repository) WithObserver(observer LoadObserver) *Repository {
	r.observer = observer
	return r
}

// Resolve returns the parsed class for a dotted or internal type name
func (r *Repository) Resolve(typeName string) (*classparser.JavaClass, error) {
	name := classparser.InternalName(typeName)

	r.mu.RLock()
	jc, ok := r.classes[name]
	r.mu.RUnlock()
	if ok {
		return jc, nil
	}

	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.classes[name]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(name)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.classes[name] = loaded
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classparser.JavaClass), nil
}

func (r *Repository) load(name string) (*classparser.JavaClass, error) {
	data, err := r.resolver.Find(name)
	if err != nil {
		if errors.Is(err, classpath.ErrClassNotFound) {
			return nil, &TypeNotFoundError{TypeName: name, Err: err}
		}
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	jc, err := classparser.ParseClassFile(data)
	if err != nil {
		logger.LogLoadError(name, err)
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	if r.observer != nil {
		r.observer.ClassLoaded(name)
	}
	logger.Debug("[REPO] Loaded %s", jc.ClassName())
	return jc, nil
}

// Hierarchy returns class followed by its superclasses, most-derived first,
// stopping before the java.lang.Object sentinel
func (r *Repository) Hierarchy(jc *classparser.JavaClass) ([]*classparser.JavaClass, error) {
	chain := []*classparser.JavaClass{jc}
	seen := map[string]bool{jc.Name: true}

	for current := jc; current.SuperName != "" && current.SuperName != ObjectClass; {
		if seen[current.SuperName] {
			return nil, fmt.Errorf("%w: %s extends %s", ErrCyclicHierarchy, current.ClassName(),
				strings.ReplaceAll(current.SuperName, "/", "."))
		}
		super, err := r.Resolve(current.SuperName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve superclass of %s: %w", current.ClassName(), err)
		}
		seen[super.Name] = true
		chain = append(chain, super)
		current = super
	}
	return chain, nil
}

// Len returns the number of loaded classes
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}
