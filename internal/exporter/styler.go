package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Styler holds the cell styles registered in one workbook
type Styler struct {
	HeaderStyle     int
	ControllerStyle int
	WrapStyle       int
	DeprecatedStyle int

	verbStyles map[string]int
}

// verbFills tints the Verb column with the console table's verb colors
var verbFills = map[string]string{
	"GET":    "#E8F5E9",
	"POST":   "#FFF8E1",
	"PUT":    "#E3F2FD",
	"PATCH":  "#E0F7FA",
	"DELETE": "#FFEBEE",
}

// NewStyler registers the report styles in f
func NewStyler(f *excelize.File) (*Styler, error) {
	s := &Styler{verbStyles: make(map[string]int, len(verbFills))}
	border := cellBorder()
	top := &excelize.Alignment{Vertical: "top", WrapText: true}

	styles := []struct {
		id    *int
		style *excelize.Style
	}{
		{&s.HeaderStyle, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border,
		}},
		{&s.ControllerStyle, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "#1A237E"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F5F5F5"}, Pattern: 1},
			Border: border,
		}},
		{&s.WrapStyle, &excelize.Style{Alignment: top, Border: border}},
		{&s.DeprecatedStyle, &excelize.Style{
			Font:      &excelize.Font{Color: "#757575", Italic: true, Strike: true},
			Alignment: top,
			Border:    border,
		}},
	}
	for _, st := range styles {
		id, err := f.NewStyle(st.style)
		if err != nil {
			return nil, fmt.Errorf("failed to register cell style: %w", err)
		}
		*st.id = id
	}

	for verb, fill := range verbFills {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Alignment: top,
			Border:    border,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register %s style: %w", verb, err)
		}
		s.verbStyles[verb] = id
	}
	return s, nil
}

// VerbStyle returns the Verb cell style of verb, or fallback for verbs
// without a tint
func (s *Styler) VerbStyle(verb string, fallback int) int {
	if id, ok := s.verbStyles[verb]; ok {
		return id
	}
	return fallback
}

func cellBorder() []excelize.Border {
	border := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "bottom", "right"} {
		border = append(border, excelize.Border{Type: side, Color: "D4D4D4", Style: 1})
	}
	return border
}
