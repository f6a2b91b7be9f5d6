// Package runner partitions a test suite across worker subprocesses, decodes
// each worker's result stream concurrently and merges them into one stream of
// per-case event groups. A worker crash never blocks collection from the
// remaining workers; cases the crashed worker left unresolved are closed with
// implicit error events.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ebarrett/subsuite/internal/wire"
)

// Options configure how the runner executes a suite.
type Options struct {
	// Command is the framework invocation; each worker's case names are
	// appended as arguments.
	Command []string

	// Protocol is the wire version the framework declared for its stream.
	Protocol wire.Version

	// Workers caps the subprocess count. Zero or negative means one per
	// available CPU core.
	Workers int

	Dir       string
	Env       []string
	Timeout   time.Duration
	TailLines int
	Log       zerolog.Logger
}

// Runner executes one suite's worth of worker subprocesses.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Protocol == "" {
		opts.Protocol = wire.V2
	}
	return &Runner{opts: opts}
}

// Group is one test case's contiguous event slice tagged with the worker that
// produced it. Groups are the unit of merge interleaving: because a case's
// events only ever travel together, the merged stream cannot split one case
// across another's events.
type Group struct {
	Worker int
	Events []wire.Event
}

// Stream is the merged result stream of one run, consumable while workers
// are still producing.
type Stream struct {
	groups  chan Group
	mu      sync.Mutex
	crashed bool
}

// Groups returns the merge channel. It closes once every worker has exited.
func (s *Stream) Groups() <-chan Group {
	return s.groups
}

// Crashed reports whether any worker exited uncleanly or produced an
// undecodable stream. Only meaningful after Groups has been drained.
func (s *Stream) Crashed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crashed
}

func (s *Stream) markCrashed() {
	s.mu.Lock()
	s.crashed = true
	s.mu.Unlock()
}

// Run partitions cases, launches one subprocess per non-empty partition and
// returns the merged stream.
func (r *Runner) Run(ctx context.Context, cases []string) *Stream {
	stream := &Stream{groups: make(chan Group)}

	var g errgroup.Group
	worker := 0
	for _, part := range Partition(cases, r.opts.Workers) {
		if len(part) == 0 {
			continue
		}
		id, subset := worker, part
		worker++
		g.Go(func() error {
			if crashed := r.collect(ctx, id, subset, stream.groups); crashed {
				stream.markCrashed()
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(stream.groups)
	}()
	return stream
}

// collect runs one worker subprocess, forwarding complete case groups to out.
// It reports whether the worker must be treated as crashed.
func (r *Runner) collect(ctx context.Context, id int, cases []string, out chan<- Group) bool {
	log := r.opts.Log.With().Int("worker", id).Logger()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	argv := append(append([]string{}, r.opts.Command...), cases...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.opts.Dir
	cmd.Env = r.opts.Env
	// If the worker is killed on timeout, force the pipes closed shortly
	// after so orphaned grandchildren cannot stall the decoder.
	cmd.WaitDelay = time.Second

	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error().Err(err).Msg("worker stdout pipe")
		return true
	}
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Strs("command", r.opts.Command).Msg("worker failed to start")
		return true
	}

	dec := wire.NewDecoder(r.opts.Protocol, stdout)
	var open *Group
	var openName string
	started := make(map[string]bool, len(cases))
	decodeFailed := false

	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("result stream unusable, treating open cases as errored")
			decodeFailed = true
			// Drain so the subprocess is not blocked on a full pipe.
			_, _ = io.Copy(io.Discard, stdout)
			break
		}

		switch {
		case ev.Kind == wire.KindStart:
			if open != nil {
				// The framework broke the per-case invariant;
				// close the previous case before opening the next.
				open.Events = append(open.Events, implicitError(openName, fmt.Sprintf("worker %d started another case before %s resolved", id, openName)))
				out <- *open
			}
			open = &Group{Worker: id, Events: []wire.Event{ev}}
			openName = ev.Test
			started[ev.Test] = true
		case open != nil:
			open.Events = append(open.Events, ev)
			if ev.Kind.Terminal() {
				out <- *open
				open = nil
			}
		default:
			// Chatter and extensions outside any case travel as
			// their own group.
			out <- Group{Worker: id, Events: []wire.Event{ev}}
		}
	}

	exit := exitCode(cmd.Wait())
	crashed := exit != 0 || decodeFailed

	if open != nil {
		detail := fmt.Sprintf("worker %d exited before completing %s", id, openName)
		if tail := tailLines(stderrBuf.String(), r.opts.TailLines); tail != "" {
			detail += "\n" + tail
		}
		open.Events = append(open.Events, implicitError(openName, detail))
		out <- *open
		crashed = true
	}
	if crashed {
		// Cases the worker never reached still need a resolution in the
		// merged stream.
		for _, name := range cases {
			if started[name] {
				continue
			}
			out <- Group{Worker: id, Events: []wire.Event{
				{Kind: wire.KindStart, Test: name},
				implicitError(name, fmt.Sprintf("worker %d exited before starting %s", id, name)),
			}}
		}
	}
	if exit != 0 {
		log.Warn().Int("exit", exit).Msg("worker exited with nonzero status")
	}
	return crashed
}

func implicitError(name, detail string) wire.Event {
	return wire.Event{Kind: wire.KindError, Test: name, Payload: []byte(detail)}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
