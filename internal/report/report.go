// Package report models per-case results and the artifacts derived from a
// fully consumed result stream.
package report

import (
	"time"

	"github.com/ebarrett/subsuite/internal/wire"
)

// Case statuses.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusErrored = "errored"
	StatusSkipped = "skipped"
)

// CaseResult captures the outcome of a single test case.
type CaseResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Payload string `json:"payload,omitempty"`
	Output  string `json:"output,omitempty"`
	Worker  int    `json:"worker"`
}

// Summary aggregates one pipeline's execution results.
type Summary struct {
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Errored    int           `json:"errored"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
}

// Builder folds a result stream into case results and counts. It assumes the
// merge invariant holds: one case's events arrive contiguously.
type Builder struct {
	cases []CaseResult
	index map[string]int
	open  map[string]*CaseResult
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]int),
		open:  make(map[string]*CaseResult),
	}
}

// Observe folds one event in. When the event closes a case, the finished
// result is returned so streaming renderers can show it immediately.
func (b *Builder) Observe(worker int, ev wire.Event) (CaseResult, bool) {
	switch {
	case ev.Kind == wire.KindStart:
		b.open[ev.Test] = &CaseResult{Name: ev.Test, Worker: worker}
	case ev.Kind == wire.KindOutput:
		if c, ok := b.open[ev.Test]; ok {
			if c.Output != "" {
				c.Output += "\n"
			}
			c.Output += string(ev.Payload)
		}
	case ev.Kind.Terminal():
		c, ok := b.open[ev.Test]
		if !ok {
			// Terminal without start: tolerate it, counting the case
			// as if it had been started.
			c = &CaseResult{Name: ev.Test, Worker: worker}
		}
		delete(b.open, ev.Test)
		c.Status = statusFor(ev.Kind)
		c.Payload = string(ev.Payload)
		b.add(*c)
		return *c, true
	}
	return CaseResult{}, false
}

func (b *Builder) add(c CaseResult) {
	if i, ok := b.index[c.Name]; ok {
		b.cases[i] = c
		return
	}
	b.index[c.Name] = len(b.cases)
	b.cases = append(b.cases, c)
}

// Open returns the names of cases that have started but not yet resolved.
// On a fully consumed, well-formed stream it is empty.
func (b *Builder) Open() []string {
	names := make([]string, 0, len(b.open))
	for name := range b.open {
		names = append(names, name)
	}
	return names
}

// Cases returns finished results in completion order.
func (b *Builder) Cases() []CaseResult {
	return b.cases
}

// Summary computes aggregate counts over the finished cases. Duration and
// ExitCode are the caller's to fill in beyond the failure bit derived here.
func (b *Builder) Summary() Summary {
	var s Summary
	for _, c := range b.cases {
		s.Total++
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		}
	}
	if s.Failed > 0 || s.Errored > 0 {
		s.ExitCode = 1
	}
	return s
}

func statusFor(k wire.Kind) string {
	switch k {
	case wire.KindSuccess:
		return StatusPassed
	case wire.KindFailure:
		return StatusFailed
	case wire.KindSkip:
		return StatusSkipped
	default:
		return StatusErrored
	}
}
