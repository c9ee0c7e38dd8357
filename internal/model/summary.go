package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Summary represents the run-level statistics for the Overview sheet and report headers
type Summary struct {
	// Run identity
	RunID        string
	AnalysisDate string

	// Project info (from config)
	ProjectName    string
	ProjectVersion string

	// System Scale
	TotalMounts      int
	TotalControllers int
	TotalOperations  int
	TotalDeprecated  int

	// Operation count per HTTP verb
	VerbCounts map[string]int

	// Per-controller statistics, in first-seen order
	ControllerStats []ControllerStat
}

// ControllerStat represents statistics for a single controller
type ControllerStat struct {
	Name            string         // Controller simple class name
	Package         string         // Package name
	OperationCount  int            // Total number of operations
	DeprecatedCount int            // Operations flagged deprecated
	VerbCounts      map[string]int // Operations per verb
}

// NewSummary creates a new Summary instance with a fresh run id
func NewSummary() *Summary {
	return &Summary{
		RunID:           uuid.NewString(),
		AnalysisDate:    time.Now().Format("2006-01-02"),
		VerbCounts:      make(map[string]int),
		ControllerStats: make([]ControllerStat, 0),
	}
}

// AddControllerStat adds a controller statistic to the summary
func (s *Summary) AddControllerStat(stat ControllerStat) {
	s.ControllerStats = append(s.ControllerStats, stat)
}

// Summarize builds a Summary from an operation list
func Summarize(mounts int, ops []*Operation) *Summary {
	s := NewSummary()
	s.TotalMounts = mounts
	s.TotalOperations = len(ops)

	index := make(map[string]int)
	for _, op := range ops {
		s.VerbCounts[op.Verb]++
		if op.Deprecated {
			s.TotalDeprecated++
		}

		i, ok := index[op.Controller]
		if !ok {
			pkg, name := SplitClassName(op.Controller)
			s.AddControllerStat(ControllerStat{
				Name:       name,
				Package:    pkg,
				VerbCounts: make(map[string]int),
			})
			i = len(s.ControllerStats) - 1
			index[op.Controller] = i
		}
		stat := &s.ControllerStats[i]
		stat.OperationCount++
		stat.VerbCounts[op.Verb]++
		if op.Deprecated {
			stat.DeprecatedCount++
		}
	}
	s.TotalControllers = len(s.ControllerStats)
	return s
}

// Verbs returns the verbs present in the summary in a stable order
func (s *Summary) Verbs() []string {
	verbs := make([]string, 0, len(s.VerbCounts))
	for v := range s.VerbCounts {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return verbs
}

// SplitClassName splits "com.example.UserController" into ("com.example", "UserController")
func SplitClassName(className string) (pkg, name string) {
	i := strings.LastIndex(className, ".")
	if i < 0 {
		return "", className
	}
	return className[:i], className[i+1:]
}
