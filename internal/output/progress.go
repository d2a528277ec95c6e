package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var stepColor = color.New(color.FgCyan)

// Progress counts blocks as they are sealed: "[2/5] Block #14".
type Progress struct {
	out      io.Writer
	total    int
	seen     int
	noColor  bool
	jsonMode bool
}

// NewProgressTo creates a Progress for total blocks writing to out.
func NewProgressTo(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

func (p *Progress) SetNoColor(noColor bool) { p.noColor = noColor }

func (p *Progress) SetJSONMode(jsonMode bool) { p.jsonMode = jsonMode }

// Block records one more sealed block at height.
func (p *Progress) Block(height uint64) {
	p.seen++
	p.print(stepColor, fmt.Sprintf("[%d/%d] Block #%d", p.seen, p.total, height))
}

// Done prints the closing summary.
func (p *Progress) Done(message string) {
	p.print(successColor, "✓ "+message)
}

func (p *Progress) print(c *color.Color, line string) {
	if p.jsonMode {
		return
	}
	if p.noColor {
		fmt.Fprintln(p.out, line)
		return
	}
	c.Fprintln(p.out, line)
}
