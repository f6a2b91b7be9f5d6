// Package output renders execution results for humans and machines.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ebarrett/subsuite/internal/report"
)

// Pretty renders results in a human-friendly format, streaming case lines as
// they resolve. It is safe for concurrent use: pipelines running in parallel
// interleave whole lines, never partial ones.
type Pretty struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewPretty creates a Pretty renderer writing to the provided writer. ANSI
// color is enabled only when the writer is a terminal.
func NewPretty(out io.Writer) *Pretty {
	p := &Pretty{out: out}
	if f, ok := out.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

// Pipeline announces that a pipeline run has started.
func (p *Pretty) Pipeline(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Pipeline %s\n", name)
}

// Case renders one resolved test case.
func (p *Pretty) Case(pipeline string, c report.CaseResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "  %s %s:%s\n", p.glyph(c.Status), pipeline, c.Name)
	if c.Status == report.StatusFailed || c.Status == report.StatusErrored {
		if c.Payload != "" {
			fmt.Fprintf(p.out, "%s\n", indent(c.Payload, "      "))
		}
		if c.Output != "" {
			fmt.Fprintf(p.out, "      output:\n%s\n", indent(c.Output, "        "))
		}
	}
	if c.Status == report.StatusSkipped && c.Payload != "" {
		fmt.Fprintf(p.out, "      note: %s\n", indent(c.Payload, "      "))
	}
}

// Summary renders one pipeline's final counts.
func (p *Pretty) Summary(pipeline string, s report.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Pipeline %s: %d passed, %d failed, %d errored, %d skipped (%s)\n",
		pipeline, s.Passed, s.Failed, s.Errored, s.Skipped, formatDuration(s.Duration))
}

// Overall renders the harness-wide closing line naming failed pipelines.
func (p *Pretty) Overall(failed []string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(failed) == 0 {
		fmt.Fprintf(p.out, "SUMMARY: %d pipeline(s) succeeded\n", total)
		return
	}
	fmt.Fprintf(p.out, "SUMMARY: %d of %d pipeline(s) failed: %s\n",
		len(failed), total, strings.Join(failed, ", "))
}

func (p *Pretty) glyph(status string) string {
	var g, color string
	switch status {
	case report.StatusPassed:
		g, color = "✓", "\033[32m"
	case report.StatusFailed, report.StatusErrored:
		g, color = "✗", "\033[31m"
	case report.StatusSkipped:
		g, color = "-", "\033[33m"
	default:
		g, color = "?", ""
	}
	if !p.color || color == "" {
		return g
	}
	return color + g + "\033[0m"
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
