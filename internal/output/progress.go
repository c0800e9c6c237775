package output

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// Progress provides progress indication for multi-step operations.
type Progress struct {
	out     io.Writer
	total   int
	current int
}

// NewProgress creates a new Progress instance with the given total steps.
func NewProgress(total int) *Progress {
	return &Progress{
		out:   os.Stdout,
		total: total,
	}
}

// NewProgressWithWriter creates a Progress writing to w.
func NewProgressWithWriter(total int, w io.Writer) *Progress {
	return &Progress{
		out:   w,
		total: total,
	}
}

// Stage prints a progress stage message in format [N/M] Description...
func (p *Progress) Stage(description string) {
	p.current++
	cyan := color.New(color.FgCyan)
	cyan.Fprintf(p.out, "[%d/%d] %s...\n", p.current, p.total, description)
}

// Current returns the current step number.
func (p *Progress) Current() int {
	return p.current
}

// Total returns the total number of steps.
func (p *Progress) Total() int {
	return p.total
}

// Done prints a completion message.
func (p *Progress) Done(message string) {
	green := color.New(color.FgGreen)
	green.Fprintf(p.out, "\n✓ %s\n", message)
}
