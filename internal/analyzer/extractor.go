package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"route-recon/internal/annotation"
	"route-recon/internal/classparser"
	"route-recon/internal/logger"
	"route-recon/internal/model"
	"route-recon/internal/signature"
)

// Extractor turns mounts into operations by reading compiled controllers
type Extractor struct {
	loader   ClassLoader
	opts     Options
	observer Observer
}

var _ Analyzer = (*Extractor)(nil)

// NewExtractor creates an extractor over a class loader
func NewExtractor(loader ClassLoader, opts Options) *Extractor {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Extractor{loader: loader, opts: opts}
}

// WithObserver sets the progress observer
func (e *Extractor) WithObserver(observer Observer) *Extractor {
	e.observer = observer
	return e
}

// Extract processes all mounts and concatenates their operations in mount
// order. The first fatal error aborts the pass and no partial result is returned.
func (e *Extractor) Extract(ctx context.Context, mounts []model.Mount) ([]*model.Operation, error) {
	results := make([][]*model.Operation, len(mounts))

	if e.opts.Parallelism == 1 {
		for i, mount := range mounts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ops, err := e.ExtractMount(mount)
			if err != nil {
				return nil, err
			}
			results[i] = ops
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Parallelism)
		for i, mount := range mounts {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ops, err := e.ExtractMount(mount)
				if err != nil {
					return err
				}
				results[i] = ops
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var all []*model.Operation
	for _, ops := range results {
		all = append(all, ops...)
	}
	logger.Info("[EXTRACT] %d operations from %d mounts", len(all), len(mounts))
	return all, nil
}

// ExtractMount returns the operations registered by a single mount
func (e *Extractor) ExtractMount(mount model.Mount) ([]*model.Operation, error) {
	if e.opts.ExcludeController != nil && e.opts.ExcludeController(model.SimpleName(mount.ControllerType)) {
		logger.Info("[EXTRACT] Skipping excluded controller %s", mount.ControllerType)
		e.notify(mount, nil)
		return nil, nil
	}

	jc, err := e.loader.Resolve(mount.ControllerType)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", mount.ControllerType, err)
	}
	chain, err := e.loader.Hierarchy(jc)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", mount.ControllerType, err)
	}
	methods := EffectiveMethods(chain)

	var ops []*model.Operation
	for _, m := range methods.Methods() {
		spec, err := e.methodSpec(jc, chain, mount, m)
		if err != nil {
			return nil, fmt.Errorf("mount %s: %w", mount.ControllerType, err)
		}
		ops = append(ops, BuildOperations(spec)...)
	}

	logger.Debug("[EXTRACT] %s: %d router methods, %d operations", jc.ClassName(), methods.Len(), len(ops))
	e.notify(mount, ops)
	return ops, nil
}

func (e *Extractor) methodSpec(jc *classparser.JavaClass, chain []*classparser.JavaClass, mount model.Mount, m *classparser.Method) (MethodSpec, error) {
	args, err := ClassifyArguments(e.loader, jc, m, e.opts.NullableByDefault)
	if err != nil {
		return MethodSpec{}, err
	}

	returnType, err := signature.ReturnType(m.Desc, m.Signature)
	if err != nil {
		return MethodSpec{}, fmt.Errorf("%s.%s: %w", jc.ClassName(), m.Name, err)
	}

	verbs := annotation.Verbs(m.Annotations)
	paths := make(map[string][]string, len(verbs))
	for _, verb := range verbs {
		paths[verb] = routePatterns(chain, m, verb, mount.PathPrefix)
	}

	return MethodSpec{
		Controller:  jc.ClassName(),
		Method:      m,
		Verbs:       verbs,
		PathsByVerb: paths,
		Arguments:   args,
		Response:    model.Response{Types: []string{returnType}},
		Deprecated:  annotation.IsDeprecated(m.Annotations),
		Produces:    mediaTypes(chain, m, verbs, annotation.Produces, "produces"),
		Consumes:    mediaTypes(chain, m, verbs, annotation.Consumes, "consumes"),
	}, nil
}

// routePatterns combines the class prefixes, the method patterns and the
// mount prefix into the full patterns of one verb
func routePatterns(chain []*classparser.JavaClass, m *classparser.Method, verb, mountPrefix string) []string {
	prefixes := classPatterns(chain, verb)
	methodPatterns := annotation.Patterns(m.Annotations, verb)

	var patterns []string
	for _, prefix := range prefixes {
		if len(methodPatterns) == 0 {
			patterns = append(patterns, JoinPath(mountPrefix, prefix))
			continue
		}
		for _, p := range methodPatterns {
			patterns = append(patterns, JoinPath(mountPrefix, prefix, p))
		}
	}
	return patterns
}

// classPatterns returns the patterns of the first class in the chain that
// declares any, or "/"
func classPatterns(chain []*classparser.JavaClass, verb string) []string {
	for _, cls := range chain {
		if patterns := annotation.Patterns(cls.Annotations, verb); len(patterns) > 0 {
			return patterns
		}
	}
	return []string{"/"}
}

// mediaTypes reads produces/consumes from the method markers and the verb
// marker's own attribute, falling back to the class chain
func mediaTypes(chain []*classparser.JavaClass, m *classparser.Method, verbs []string, marker annotation.Marker, verbAttr string) []string {
	types := annotation.MediaTypes(m.Annotations, marker)
	for _, verb := range verbs {
		for _, a := range annotation.Find(m.Annotations, annotation.JoobyVerb(verb)) {
			types = append(types, annotation.Strings(a, verbAttr)...)
		}
	}
	if len(types) > 0 {
		return dedupe(types)
	}
	for _, cls := range chain {
		if types := annotation.MediaTypes(cls.Annotations, marker); len(types) > 0 {
			return dedupe(types)
		}
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func (e *Extractor) notify(mount model.Mount, ops []*model.Operation) {
	if e.observer != nil {
		e.observer.MountProcessed(mount, ops)
	}
}
