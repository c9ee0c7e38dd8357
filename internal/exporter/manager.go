package exporter

import (
	"strings"

	"route-recon/internal/exporter/html"
	"route-recon/internal/exporter/openapi"
	"route-recon/internal/exporter/word"
	"route-recon/internal/logger"
)

// formatAliases maps accepted format names to their canonical name
var formatAliases = map[string]string{
	"excel":   "excel",
	"xlsx":    "excel",
	"html":    "html",
	"word":    "word",
	"docx":    "word",
	"openapi": "openapi",
	"swagger": "openapi",
	"json":    "json",
}

// CanonicalFormat returns the canonical name of a format, or "" when unknown
func CanonicalFormat(format string) string {
	return formatAliases[strings.ToLower(strings.TrimSpace(format))]
}

// GetExporters returns a list of Exporters based on requested formats.
// Aliases of the same format yield a single exporter.
func GetExporters(formats []string) []Exporter {
	exporters := []Exporter{}
	seen := make(map[string]bool)

	for _, format := range formats {
		name := CanonicalFormat(format)
		if name == "" {
			logger.Warn("Unknown output format %q ignored", format)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "excel":
			exporters = append(exporters, NewExcelExporter())
		case "html":
			exporters = append(exporters, html.NewHTMLExporter())
		case "word":
			exporters = append(exporters, word.NewWordExporter())
		case "openapi":
			exporters = append(exporters, openapi.NewOpenAPIExporter())
		case "json":
			exporters = append(exporters, NewJSONExporter())
		}
	}
	return exporters
}
