package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "subsuite",
		Short:         "Subsuite runs framework test suites in parallel and aggregates their result streams",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default: .subsuite.yml in the working directory)")
	persistent.Int("workers", 0, "worker subprocesses per pipeline (default: CPU count)")
	persistent.StringArray("pipeline", nil, "pipeline definition file to include (repeatable)")
	persistent.StringArray("select", nil, "run only pipelines matching the pattern (repeatable)")
	persistent.StringArray("only-case", nil, "include only matching test cases")
	persistent.StringArray("skip-case", nil, "exclude matching test cases")
	persistent.String("report-dir", "", "directory for report artifacts")
	persistent.String("format", "", "output format (pretty|json)")
	persistent.Bool("fail-fast", false, "run pipelines sequentially and stop after the first failure")
	persistent.String("timeout", "", "per-worker timeout, e.g. 10m")
	persistent.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newConvertCmd())

	return cmd
}

// newLogger builds the command logger. Human-readable console output when
// stderr is a terminal, JSON lines otherwise.
func newLogger(cmd *cobra.Command, verbose bool) zerolog.Logger {
	w := cmd.ErrOrStderr()
	var out io.Writer = w
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
