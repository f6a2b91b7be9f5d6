// Package pipeline coordinates pipeline runs: each run executes one
// framework's suite through the parallel runner, folds the merged stream into
// a report, persists the artifact and reports a terminal status. The
// coordinator launches runs concurrently and combines their statuses over a
// results channel; there is no shared mutable aggregate.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebarrett/subsuite/internal/config"
	"github.com/ebarrett/subsuite/internal/filter"
	"github.com/ebarrett/subsuite/internal/output"
	"github.com/ebarrett/subsuite/internal/protocol"
	"github.com/ebarrett/subsuite/internal/report"
	"github.com/ebarrett/subsuite/internal/runner"
	"github.com/ebarrett/subsuite/internal/wire"
)

// Status is a pipeline run's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Spec is one pipeline scheduled for execution. Cases may be pre-resolved;
// when nil, the run resolves them through the pipeline's list command.
type Spec struct {
	config.Pipeline
	Cases []string
}

// Result is a pipeline run's terminal outcome.
type Result struct {
	Name       string
	Status     Status
	Summary    report.Summary
	Cases      []report.CaseResult
	ReportPath string
	Err        error
}

// Options configure the coordinator.
type Options struct {
	Workers   int
	Timeout   time.Duration
	FailFast  bool
	ReportDir string
	Dir       string
	Env       []string
	OnlyCases []filter.Pattern
	SkipCases []filter.Pattern
	Renderer  *output.Pretty
	Log       zerolog.Logger
}

// Coordinator executes pipeline runs and combines their statuses.
type Coordinator struct {
	opts Options
}

// NewCoordinator creates a coordinator with the supplied options.
func NewCoordinator(opts Options) *Coordinator {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	return &Coordinator{opts: opts}
}

// Execute runs every spec and returns one result per spec, in spec order.
// By default runs execute concurrently. With FailFast they execute in order
// and later pipelines are left Pending once one fails; a run that has started
// is never cancelled.
func (c *Coordinator) Execute(ctx context.Context, specs []Spec) []Result {
	results := make([]Result, len(specs))

	if c.opts.FailFast {
		for i, spec := range specs {
			results[i] = c.run(ctx, spec)
			if results[i].Status == StatusFailed {
				for j := i + 1; j < len(specs); j++ {
					results[j] = Result{Name: specs[j].Name, Status: StatusPending}
				}
				break
			}
		}
		return results
	}

	type indexed struct {
		i   int
		res Result
	}
	ch := make(chan indexed, len(specs))
	for i, spec := range specs {
		go func(i int, spec Spec) {
			ch <- indexed{i, c.run(ctx, spec)}
		}(i, spec)
	}
	for range specs {
		ix := <-ch
		results[ix.i] = ix.res
	}
	return results
}

// ExitCode folds terminal statuses into the process exit code: zero only
// when every run succeeded. The numeric value of a failure carries no
// meaning beyond "at least one failure".
func ExitCode(results []Result) int {
	for _, r := range results {
		if r.Status != StatusSucceeded {
			return 1
		}
	}
	return 0
}

// Failed returns the names of runs that did not succeed.
func Failed(results []Result) []string {
	var names []string
	for _, r := range results {
		if r.Status != StatusSucceeded {
			names = append(names, r.Name)
		}
	}
	return names
}

func (c *Coordinator) run(ctx context.Context, spec Spec) Result {
	res := Result{Name: spec.Name, Status: StatusRunning}
	log := c.opts.Log.With().Str("pipeline", spec.Name).Logger()

	caps, err := protocol.Resolve(spec.Protocol)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	cases := spec.Cases
	if cases == nil {
		cases, err = ListCases(ctx, spec.Pipeline, c.opts.Dir, c.env(spec))
		if err != nil {
			log.Error().Err(err).Msg("case listing failed")
			res.Status = StatusFailed
			res.Err = err
			return res
		}
	}
	cases = filter.Select(cases, c.opts.OnlyCases, c.opts.SkipCases)

	if c.opts.Renderer != nil {
		c.opts.Renderer.Pipeline(spec.Name)
	}
	log.Info().Int("cases", len(cases)).Str("protocol", string(caps.Version)).Msg("pipeline starting")

	start := time.Now()
	r := runner.New(runner.Options{
		Command:  spec.Run,
		Protocol: caps.Version,
		Workers:  c.opts.Workers,
		Timeout:  c.opts.Timeout,
		Dir:      c.opts.Dir,
		Env:      c.env(spec),
		Log:      log,
	})
	stream := r.Run(ctx, cases)

	builder := report.NewBuilder()
	for g := range stream.Groups() {
		for _, ev := range g.Events {
			if ev.Kind == wire.KindExtension {
				if caps.Supports(ev.Kind) {
					log.Debug().Str("extension", ev.Extension).Msg("ignoring extension event")
				} else {
					log.Warn().Str("extension", ev.Extension).Msg("extension event from a protocol that declares none")
				}
				continue
			}
			if done, finished := builder.Observe(g.Worker, ev); finished && c.opts.Renderer != nil {
				c.opts.Renderer.Case(spec.Name, done)
			}
		}
	}

	summary := builder.Summary()
	summary.Duration = time.Since(start)
	summary.DurationMS = summary.Duration.Milliseconds()
	crashed := stream.Crashed()
	if crashed {
		summary.ExitCode = 1
	}
	res.Summary = summary
	res.Cases = builder.Cases()

	path := c.reportPath(spec)
	doc := report.BuildDocument(spec.Name, res.Cases, summary)
	if err := report.WriteJUnit(path, doc); err != nil {
		log.Error().Err(err).Msg("report write failed")
		res.Err = err
	} else {
		res.ReportPath = path
	}

	if summary.Failed > 0 || summary.Errored > 0 || crashed || res.Err != nil {
		res.Status = StatusFailed
	} else {
		res.Status = StatusSucceeded
	}

	if c.opts.Renderer != nil {
		c.opts.Renderer.Summary(spec.Name, summary)
	}
	log.Info().Stringer("status", res.Status).Int("passed", summary.Passed).
		Int("failed", summary.Failed).Int("errored", summary.Errored).Msg("pipeline finished")
	return res
}

func (c *Coordinator) reportPath(spec Spec) string {
	if spec.Report != "" {
		if filepath.IsAbs(spec.Report) || c.opts.ReportDir == "" {
			return spec.Report
		}
		return filepath.Join(c.opts.ReportDir, spec.Report)
	}
	dir := c.opts.ReportDir
	if dir == "" {
		dir = "reports"
	}
	return filepath.Join(dir, spec.Name+".xml")
}

func (c *Coordinator) env(spec Spec) []string {
	return mergeEnv(c.opts.Env, spec.Env)
}

// ListCases invokes the pipeline's declared list command and returns one case
// name per non-empty output line.
func ListCases(ctx context.Context, def config.Pipeline, dir string, env []string) ([]string, error) {
	if len(def.List) == 0 {
		return nil, fmt.Errorf("pipeline %q declares no list command", def.Name)
	}
	cmd := exec.CommandContext(ctx, def.List[0], def.List[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list cases for %q: %w", def.Name, err)
	}

	var cases []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			cases = append(cases, line)
		}
	}
	return cases, nil
}

func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	envMap := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range overlay {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}
