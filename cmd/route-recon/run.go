package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"route-recon/internal/analyzer"
	"route-recon/internal/classpath"
	"route-recon/internal/config"
	"route-recon/internal/exporter"
	"route-recon/internal/logger"
	"route-recon/internal/manifest"
	"route-recon/internal/metrics"
	"route-recon/internal/model"
	"route-recon/internal/repository"
	"route-recon/internal/ui"
)

// passResult is the outcome of one extraction pass
type passResult struct {
	Operations []*model.Operation
	Summary    *model.Summary
}

// runPass loads the mounts and classpath, extracts operations and writes
// every configured report. A fatal extraction error aborts the pass before
// any report is written.
func runPass(ctx context.Context, cfg *config.Config, interactive bool, out io.Writer) (*passResult, error) {
	pipeline := ui.NewPipelineWithOutput(ui.DefaultPhases, out)
	if !interactive {
		pipeline.Disable()
	}
	defer pipeline.Finish()

	start := time.Now()
	recorder := metrics.New()

	// --- Phase 1: Loading ---
	logger.Info("Phase 1: Loading mounts and classpath...")
	loadBar := pipeline.NextPhase(2)

	mounts, err := loadMounts(cfg)
	if err != nil {
		return nil, err
	}
	loadBar.Increment()

	cp, err := classpath.Open(cfg.Classpath.Entries, cfg.ShouldExclude)
	if err != nil {
		return nil, err
	}
	defer cp.Close()
	loadBar.Increment()
	logger.Info("%d mounts, %d classpath entries", len(mounts), cp.Len())

	// --- Phase 2: Extracting ---
	logger.Info("Phase 2: Extracting operations...")
	extractBar := pipeline.NextPhase(len(mounts))

	repo := repository.New(cp).WithObserver(recorder)
	extractor := analyzer.NewExtractor(repo, analyzer.Options{
		Parallelism:       cfg.Analysis.Parallelism,
		NullableByDefault: cfg.NullableByDefault(),
		ExcludeController: cfg.IsExcludedController,
	}).WithObserver(analyzer.Observers{extractBar, recorder})

	ops, err := extractor.Extract(ctx, mounts)
	if err != nil {
		return nil, err
	}
	recorder.ObservePass(time.Since(start))
	logger.Info("Extracted %d operations (%d classes loaded)", len(ops), repo.Len())

	if interactive {
		pipeline.Finish()
		ui.PrintOperations(out, ops)
	}

	summary := buildSummary(cfg, len(mounts), ops)

	// --- Phase 3: Exporting ---
	logger.Info("Phase 3: Generating reports...")
	exporters := exporter.GetExporters(cfg.Output.Formats)
	exportBar := pipeline.NextPhase(len(exporters))

	var exportErrors []error
	for _, exp := range exporters {
		if err := exp.Export(summary, ops, cfg); err != nil {
			logger.Error("Export failed: %v", err)
			exportErrors = append(exportErrors, err)
		}
		exportBar.Increment()
	}
	pipeline.Finish()

	if cfg.Output.MetricsFile != "" {
		if err := recorder.WriteFile(cfg.Output.MetricsFile); err != nil {
			logger.Warn("%v", err)
		}
	}

	if len(exportErrors) > 0 {
		return nil, fmt.Errorf("one or more exports failed: %w", errors.Join(exportErrors...))
	}

	pipeline.PrintSummary(fmt.Sprintf("%d operations from %d controllers in %s",
		summary.TotalOperations, summary.TotalControllers, time.Since(start).Round(time.Millisecond)))
	return &passResult{Operations: ops, Summary: summary}, nil
}

// loadMounts returns the manifest mounts followed by the mounts listed in the config
func loadMounts(cfg *config.Config) ([]model.Mount, error) {
	var mounts []model.Mount
	if cfg.Analysis.Manifest != "" {
		loaded, err := manifest.Load(cfg.Analysis.Manifest, cfg.Project.Encoding)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, loaded...)
	}
	for _, m := range cfg.Mounts {
		mounts = append(mounts, model.Mount{ControllerType: m.Type, PathPrefix: m.Prefix})
	}
	return mounts, nil
}

func buildSummary(cfg *config.Config, mounts int, ops []*model.Operation) *model.Summary {
	s := model.Summarize(mounts, ops)
	s.ProjectName = cfg.Project.Name
	s.ProjectVersion = cfg.Project.Version
	return s
}
