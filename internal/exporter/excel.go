package exporter

import (
	"fmt"
	"strings"

	"route-recon/internal/config"
	"route-recon/internal/exporter/common"
	"route-recon/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	overviewSheet   = "Overview"
	operationsSheet = "Operations"
)

// ExcelExporter handles the Excel generation
type ExcelExporter struct {
	// Stateless
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Export generates the Excel report
func (e *ExcelExporter) Export(summary *model.Summary, ops []*model.Operation, cfg *config.Config) error {
	outputFile := cfg.GetOutputPath(".xlsx")
	f := excelize.NewFile()
	defer f.Close()

	styler, err := NewStyler(f)
	if err != nil {
		return err
	}

	// 1. Create Overview Sheet
	if err := e.writeOverview(f, styler, summary); err != nil {
		return err
	}

	// 2. Create Operations Sheet
	if err := e.writeOperations(f, styler, ops); err != nil {
		return err
	}

	// Remove default "Sheet1"
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx != -1 {
		f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(outputFile); err != nil {
		return fmt.Errorf("failed to save excel report: %w", err)
	}
	return nil
}

// --- Overview Sheet Logic ---

func (e *ExcelExporter) writeOverview(f *excelize.File, s *Styler, summary *model.Summary) error {
	if _, err := f.NewSheet(overviewSheet); err != nil {
		return err
	}

	// Section A: Run Summary
	row := 1
	e.writeRow(f, overviewSheet, row, []string{"Metric", "Value"}, s.HeaderStyle)
	row++

	metrics := []struct {
		Key string
		Val interface{}
	}{
		{"Project", summary.ProjectName},
		{"Version", summary.ProjectVersion},
		{"Analysis Date", summary.AnalysisDate},
		{"Run ID", summary.RunID},
		{"Total Mounts", summary.TotalMounts},
		{"Total Controllers", summary.TotalControllers},
		{"Total Operations", summary.TotalOperations},
		{"Deprecated Operations", summary.TotalDeprecated},
	}
	for _, m := range metrics {
		f.SetCellValue(overviewSheet, fmt.Sprintf("A%d", row), m.Key)
		f.SetCellValue(overviewSheet, fmt.Sprintf("B%d", row), m.Val)
		row++
	}

	row += 2 // Spacer

	// Section B: Operations per verb
	e.writeRow(f, overviewSheet, row, []string{"Verb", "Operations"}, s.HeaderStyle)
	row++
	for _, verb := range summary.Verbs() {
		f.SetCellValue(overviewSheet, fmt.Sprintf("A%d", row), verb)
		f.SetCellValue(overviewSheet, fmt.Sprintf("B%d", row), summary.VerbCounts[verb])
		row++
	}

	row += 2 // Spacer

	// Section C: Controllers
	e.writeRow(f, overviewSheet, row, []string{"No", "Controller Name", "Package", "Operations", "Deprecated", "Verbs"}, s.HeaderStyle)
	row++
	for i, stat := range summary.ControllerStats {
		f.SetCellValue(overviewSheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(overviewSheet, fmt.Sprintf("B%d", row), stat.Name)
		f.SetCellValue(overviewSheet, fmt.Sprintf("C%d", row), stat.Package)
		f.SetCellValue(overviewSheet, fmt.Sprintf("D%d", row), stat.OperationCount)
		f.SetCellValue(overviewSheet, fmt.Sprintf("E%d", row), stat.DeprecatedCount)
		f.SetCellValue(overviewSheet, fmt.Sprintf("F%d", row), verbBreakdown(stat.VerbCounts))
		row++
	}

	f.SetColWidth(overviewSheet, "A", "A", 24)
	f.SetColWidth(overviewSheet, "B", "C", 36)
	f.SetColWidth(overviewSheet, "F", "F", 30)
	return nil
}

// --- Operations Sheet Logic ---

var operationHeaders = []string{"Verb", "Path", "Method", "Parameters", "Request Body", "Response", "Produces", "Consumes", "Note"}

func (e *ExcelExporter) writeOperations(f *excelize.File, s *Styler, ops []*model.Operation) error {
	if _, err := f.NewSheet(operationsSheet); err != nil {
		return err
	}

	e.writeRow(f, operationsSheet, 1, operationHeaders, s.HeaderStyle)
	f.SetPanes(operationsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	lastCol, _ := excelize.ColumnNumberToName(len(operationHeaders))
	row := 2
	for _, group := range common.GroupByController(common.SortOperations(ops)) {
		// Controller section row
		f.SetCellValue(operationsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("[%s]", group.Name))
		f.SetCellValue(operationsSheet, fmt.Sprintf("B%d", row), group.Package)
		f.SetCellStyle(operationsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), s.ControllerStyle)
		row++

		for _, op := range group.Operations {
			e.writeOperationRow(f, row, op)
			style := s.WrapStyle
			if op.Deprecated {
				style = s.DeprecatedStyle
			}
			f.SetCellStyle(operationsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), style)
			if !op.Deprecated {
				verbCell := fmt.Sprintf("A%d", row)
				f.SetCellStyle(operationsSheet, verbCell, verbCell, s.VerbStyle(op.Verb, style))
			}
			row++
		}
	}

	f.SetColWidth(operationsSheet, "A", "A", 10) // Verb
	f.SetColWidth(operationsSheet, "B", "B", 40) // Path
	f.SetColWidth(operationsSheet, "C", "C", 24) // Method
	f.SetColWidth(operationsSheet, "D", "F", 40) // Params/Body/Response
	f.SetColWidth(operationsSheet, "G", "H", 24) // Media types
	f.SetColWidth(operationsSheet, "I", "I", 14) // Note
	return nil
}

func (e *ExcelExporter) writeOperationRow(f *excelize.File, row int, op *model.Operation) {
	note := ""
	if op.Deprecated {
		note = "Deprecated"
	}
	values := []string{
		op.Verb,
		op.Pattern,
		op.MethodName,
		common.ParamsText(op),
		common.BodyText(op),
		common.ResponseText(op),
		strings.Join(op.Produces, ", "),
		strings.Join(op.Consumes, ", "),
		note,
	}
	for i, val := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(operationsSheet, cell, val)
	}
}

func (e *ExcelExporter) writeRow(f *excelize.File, sheet string, row int, values []string, style int) {
	for i, val := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, val)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

// verbBreakdown renders per-verb counts as "GET 3, POST 1"
func verbBreakdown(counts map[string]int) string {
	summary := &model.Summary{VerbCounts: counts}
	parts := make([]string, 0, len(counts))
	for _, verb := range summary.Verbs() {
		parts = append(parts, fmt.Sprintf("%s %d", verb, counts[verb]))
	}
	return strings.Join(parts, ", ")
}
