package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"OptionSentinel/internal/model"
)

// Reporter receives trading cycle stage transitions.
type Reporter interface {
	Stage(stage model.Stage)
}

// Noop discards stage transitions.
type Noop struct{}

func (Noop) Stage(model.Stage) {}

var (
	stageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
)

// stageFraction is how far along the cycle each stage is.
var stageFraction = map[model.Stage]float64{
	model.StageFetchingData: 0.15,
	model.StageScoring:      0.35,
	model.StageSelecting:    0.50,
	model.StageSizing:       0.65,
	model.StageSubmitting:   0.80,
	model.StageSkipped:      0.80,
	model.StageNotifying:    0.90,
	model.StageIdle:         1.0,
}

// Bar renders each stage as a static progress bar line.
type Bar struct {
	mu  sync.Mutex
	out io.Writer
	bar progress.Model
}

// NewBar creates a bar reporter writing to out.
func NewBar(out io.Writer) *Bar {
	return &Bar{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (b *Bar) Stage(stage model.Stage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, "\r%s %s", b.bar.ViewAs(stageFraction[stage]), label(stage))
	if stage == model.StageIdle {
		fmt.Fprintln(b.out)
	}
}

func label(stage model.Stage) string {
	switch stage {
	case model.StageSkipped:
		return skipStyle.Render(string(stage))
	case model.StageIdle:
		return doneStyle.Render("DONE")
	default:
		return stageStyle.Render(string(stage))
	}
}

// Recorder keeps the stages it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	Stages []model.Stage
}

func (r *Recorder) Stage(stage model.Stage) {
	r.mu.Lock()
	r.Stages = append(r.Stages, stage)
	r.mu.Unlock()
}

// Seen returns a copy of the recorded stages.
func (r *Recorder) Seen() []model.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Stage(nil), r.Stages...)
}
