package word

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"route-recon/internal/config"
	"route-recon/internal/exporter/common"
	"route-recon/internal/model"

	"github.com/nguyenthenguyen/docx"
)

//go:generate go run ../../../cmd/gentemplate -o template.docx

//go:embed template.docx
var templateFS embed.FS

type WordExporter struct{}

func NewWordExporter() *WordExporter {
	return &WordExporter{}
}

func (e *WordExporter) Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error {
	// 1. Extract embedded template to temp file
	templateBytes, err := templateFS.ReadFile("template.docx")
	if err != nil {
		return fmt.Errorf("failed to read embedded template: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "route-recon-template-*.docx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(templateBytes); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write template to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	r, err := docx.ReadDocxFile(tmpFile.Name())
	if err != nil {
		return fmt.Errorf("failed to read docx from temp file: %w", err)
	}
	defer r.Close()

	doc := r.Editable()
	groups := common.GroupByController(common.SortOperations(ops))

	// 2. Replace Summary Placeholders
	project := summary.ProjectName
	if project == "" {
		project = "API"
	}
	doc.Replace("{{Project}}", strings.TrimSpace(project+" "+summary.ProjectVersion), -1)
	doc.Replace("{{Date}}", summary.AnalysisDate, -1)
	doc.Replace("{{TotalOperations}}", fmt.Sprintf("%d", len(ops)), -1)
	doc.Replace("{{TotalControllers}}", fmt.Sprintf("%d", len(groups)), -1)

	// 3. Generate the operation reference as plain text
	var content strings.Builder
	for i, group := range groups {
		content.WriteString(fmt.Sprintf("%s (%s)\n", group.Name, group.Package))
		content.WriteString(strings.Repeat("=", 80) + "\n\n")
		for _, op := range group.Operations {
			writeOperation(&content, op)
		}
		if i < len(groups)-1 {
			content.WriteString("\n")
		}
	}

	// The docx library handles XML encoding
	doc.Replace("{{Content}}", content.String(), -1)

	outFile := cfg.GetOutputPath(".docx")
	if err := doc.WriteToFile(outFile); err != nil {
		return fmt.Errorf("failed to write Word document: %w", err)
	}
	return nil
}

// writeOperation writes the plain text block of one operation
func writeOperation(sb *strings.Builder, op *model.Operation) {
	sb.WriteString(fmt.Sprintf("[%s] %s", op.Verb, op.Pattern))
	if op.Deprecated {
		sb.WriteString("  (deprecated)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Method: %s\n", op.MethodName))
	if len(op.Produces) > 0 {
		sb.WriteString(fmt.Sprintf("Produces: %s\n", strings.Join(op.Produces, ", ")))
	}
	if len(op.Consumes) > 0 {
		sb.WriteString(fmt.Sprintf("Consumes: %s\n", strings.Join(op.Consumes, ", ")))
	}
	sb.WriteString("\n")

	if len(op.Parameters) > 0 {
		sb.WriteString("PARAMETERS:\n")
		sb.WriteString(fmt.Sprintf("%-25s %-10s %-25s %s\n", "Name", "In", "Type", "Required"))
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, p := range op.Parameters {
			required := "No"
			if p.Required {
				required = "Yes"
			}
			sb.WriteString(fmt.Sprintf("%-25s %-10s %-25s %s\n",
				truncate(p.Name, 25), p.In, truncate(model.SimpleName(p.Type), 25), required))
		}
		sb.WriteString("\n")
	}

	if body := common.BodyText(op); body != "" {
		sb.WriteString("REQUEST BODY: " + body + "\n")
	}
	sb.WriteString("RESPONSE: " + common.ResponseText(op) + "\n")
	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
