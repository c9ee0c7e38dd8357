package exporter

import (
	"route-recon/internal/config"
	"route-recon/internal/model"
)

// Exporter is the unified interface for all reporting strategies.
// Exporters only read the operations; they never modify them.
type Exporter interface {
	Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error
}
