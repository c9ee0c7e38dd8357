package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"route-recon/internal/model"
)

// Phase represents a stage of one extraction run
type Phase string

const (
	PhaseLoading    Phase = "Loading"
	PhaseExtracting Phase = "Extracting"
	PhaseExporting  Phase = "Exporting"
)

// DefaultPhases is the phase order of one extraction run
var DefaultPhases = []Phase{PhaseLoading, PhaseExtracting, PhaseExporting}

// ProgressBar is the bar of one phase
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	phase Phase
}

// NewProgressBarWithOutput creates a bar for phase with total steps
func NewProgressBarWithOutput(phase Phase, total int, output io.Writer) *ProgressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(output),
		progressbar.OptionSetDescription(fmt.Sprintf("[%s]", phase)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(true),
	)
	return &ProgressBar{bar: bar, phase: phase}
}

func (pb *ProgressBar) Increment() error {
	return pb.bar.Add(1)
}

func (pb *ProgressBar) Finish() error {
	return pb.bar.Finish()
}

// Describe shows what the phase is working on next to the phase name
func (pb *ProgressBar) Describe(description string) {
	pb.bar.Describe(fmt.Sprintf("[%s] %s", pb.phase, description))
}

// MountProcessed advances the bar by one mount. The bar serializes
// concurrent updates itself.
func (pb *ProgressBar) MountProcessed(m model.Mount, _ []*model.Operation) {
	pb.Describe(model.SimpleName(m.ControllerType))
	pb.Increment()
}

// Pipeline runs one bar per phase, in order, and times each phase
type Pipeline struct {
	phases   []Phase
	current  int
	bar      *ProgressBar
	started  time.Time
	timings  []PhaseTiming
	disabled bool
	output   io.Writer
}

// PhaseTiming is the wall time spent in a finished phase
type PhaseTiming struct {
	Phase    Phase
	Duration time.Duration
}

// NewPipelineWithOutput creates a pipeline drawing its bars on output
func NewPipelineWithOutput(phases []Phase, output io.Writer) *Pipeline {
	return &Pipeline{
		phases:  phases,
		current: -1,
		timings: make([]PhaseTiming, 0, len(phases)),
		output:  output,
	}
}

// Disable keeps the bars working but discards their output
func (p *Pipeline) Disable() {
	p.disabled = true
}

// NextPhase finishes the current phase and starts the next one with total
// steps. It returns nil once every phase has run.
func (p *Pipeline) NextPhase(total int) *ProgressBar {
	p.Finish()

	p.current++
	if p.current >= len(p.phases) {
		return nil
	}

	output := p.output
	if p.disabled {
		output = io.Discard
	}
	p.bar = NewProgressBarWithOutput(p.phases[p.current], total, output)
	p.started = time.Now()
	return p.bar
}

// Finish completes the current phase; calling it again is a no-op
func (p *Pipeline) Finish() {
	if p.bar == nil {
		return
	}
	p.bar.Finish()
	p.timings = append(p.timings, PhaseTiming{Phase: p.bar.phase, Duration: time.Since(p.started)})
	p.bar = nil
}

// Timings returns the durations of the finished phases
func (p *Pipeline) Timings() []PhaseTiming {
	return p.timings
}

// PrintSummary prints message followed by the phase timings unless output is disabled
func (p *Pipeline) PrintSummary(message string) {
	if p.disabled {
		return
	}
	fmt.Fprintln(p.output, message)
	for _, t := range p.timings {
		fmt.Fprintf(p.output, "  %-10s %s\n", t.Phase, t.Duration.Round(time.Millisecond))
	}
}
