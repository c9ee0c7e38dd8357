// Package metrics collects per-run extraction metrics in a private
// Prometheus registry and writes them in the text exposition format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"route-recon/internal/model"
)

const namespace = "route_recon"

// Recorder observes class loads and processed mounts for one run
type Recorder struct {
	registry *prometheus.Registry

	classesLoaded   prometheus.Counter
	mountsProcessed prometheus.Counter
	operations      *prometheus.CounterVec
	passDuration    prometheus.Histogram
	lastPass        prometheus.Gauge
}

// New creates a recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		classesLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_loaded_total",
			Help:      "Class files loaded from the classpath",
		}),
		mountsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mounts_processed_total",
			Help:      "Mounts resolved into operations",
		}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations extracted by HTTP verb",
		}, []string{"verb"}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of an extraction pass",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		lastPass: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time the last extraction pass finished",
		}),
	}
}

// ClassLoaded counts a class file read from the classpath
func (r *Recorder) ClassLoaded(string) {
	r.classesLoaded.Inc()
}

// MountProcessed counts a mount and its operations by verb
func (r *Recorder) MountProcessed(_ model.Mount, ops []*model.Operation) {
	r.mountsProcessed.Inc()
	for _, op := range ops {
		r.operations.WithLabelValues(op.Verb).Inc()
	}
}

// ObservePass records the duration of a finished pass
func (r *Recorder) ObservePass(d time.Duration) {
	r.passDuration.Observe(d.Seconds())
	r.lastPass.SetToCurrentTime()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteFile writes all metrics to path in the Prometheus text format
func (r *Recorder) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
