package html

import (
	"fmt"
	"html/template"
	"os"
	"strings"

	"route-recon/internal/config"
	"route-recon/internal/exporter/common"
	"route-recon/internal/model"
)

type HTMLExporter struct{}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// ReportData is the template input
type ReportData struct {
	ProjectName      string
	ProjectVersion   string
	AnalysisDate     string
	RunID            string
	TotalOperations  int
	TotalControllers int
	TotalDeprecated  int
	Groups           []common.ControllerGroup
}

var funcs = template.FuncMap{
	"verbClass":    verbClass,
	"simpleName":   model.SimpleName,
	"schemaText":   common.SchemaText,
	"responseText": common.ResponseText,
	"join": func(values []string) string {
		return strings.Join(values, ", ")
	},
	"contains": func(values []string, v string) bool {
		for _, s := range values {
			if s == v {
				return true
			}
		}
		return false
	},
}

var reportTemplate = template.Must(template.New("operation-report").Funcs(funcs).Parse(OperationReportTemplate))

func (e *HTMLExporter) Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error {
	groups := common.GroupByController(common.SortOperations(ops))

	data := ReportData{
		ProjectName:      summary.ProjectName,
		ProjectVersion:   summary.ProjectVersion,
		AnalysisDate:     summary.AnalysisDate,
		RunID:            summary.RunID,
		TotalOperations:  len(ops),
		TotalControllers: len(groups),
		TotalDeprecated:  summary.TotalDeprecated,
		Groups:           groups,
	}

	outputFile := cfg.GetOutputPath(".html")
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create html report: %w", err)
	}
	defer f.Close()

	return reportTemplate.Execute(f, data)
}

// verbClass returns the CSS class of an HTTP verb badge
func verbClass(verb string) string {
	switch strings.ToUpper(verb) {
	case "GET", "POST", "PUT", "DELETE", "PATCH":
		return "verb-" + strings.ToLower(verb)
	default:
		return "verb-other"
	}
}
