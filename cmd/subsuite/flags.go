package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebarrett/subsuite/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("workers") {
		v, err := flags.GetInt("workers")
		if err != nil {
			return values, fmt.Errorf("parse --workers: %w", err)
		}
		values.Workers = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("pipeline") {
		v, err := flags.GetStringArray("pipeline")
		if err != nil {
			return values, fmt.Errorf("parse --pipeline: %w", err)
		}
		values.Pipelines = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("select") {
		v, err := flags.GetStringArray("select")
		if err != nil {
			return values, fmt.Errorf("parse --select: %w", err)
		}
		values.Select = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("only-case") {
		v, err := flags.GetStringArray("only-case")
		if err != nil {
			return values, fmt.Errorf("parse --only-case: %w", err)
		}
		values.OnlyCases = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip-case") {
		v, err := flags.GetStringArray("skip-case")
		if err != nil {
			return values, fmt.Errorf("parse --skip-case: %w", err)
		}
		values.SkipCases = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("report-dir") {
		v, err := flags.GetString("report-dir")
		if err != nil {
			return values, fmt.Errorf("parse --report-dir: %w", err)
		}
		values.ReportDir = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("fail-fast") {
		v, err := flags.GetBool("fail-fast")
		if err != nil {
			return values, fmt.Errorf("parse --fail-fast: %w", err)
		}
		values.FailFast = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("timeout") {
		v, err := flags.GetString("timeout")
		if err != nil {
			return values, fmt.Errorf("parse --timeout: %w", err)
		}
		values.Timeout = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
