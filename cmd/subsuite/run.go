package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ebarrett/subsuite/internal/config"
	"github.com/ebarrett/subsuite/internal/output"
	"github.com/ebarrett/subsuite/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute pipelines and aggregate their results",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	specs, err := loadSpecs(root, cfg)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg.Verbose)
	opts, err := coordinatorOptions(cfg, root, log)
	if err != nil {
		return err
	}

	var renderer *output.Pretty
	format := strings.ToLower(cfg.Format)
	switch format {
	case config.FormatPretty:
		renderer = output.NewPretty(cmd.OutOrStdout())
		opts.Renderer = renderer
	case config.FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	coordinator := pipeline.NewCoordinator(opts)
	results := coordinator.Execute(cmd.Context(), specs)
	exitCode := pipeline.ExitCode(results)

	switch format {
	case config.FormatPretty:
		renderer.Overall(pipeline.Failed(results), len(results))
	case config.FormatJSON:
		rep := output.Report{ExitCode: exitCode}
		for _, r := range results {
			pr := output.PipelineReport{
				Name:       r.Name,
				Status:     r.Status.String(),
				ReportPath: r.ReportPath,
				Summary:    r.Summary,
				Cases:      r.Cases,
			}
			if r.Err != nil {
				pr.Error = r.Err.Error()
			}
			rep.Pipelines = append(rep.Pipelines, pr)
		}
		if err := output.NewJSON(cmd.OutOrStdout()).Render(rep); err != nil {
			return err
		}
	}

	if exitCode != 0 {
		return fmt.Errorf("one or more pipelines failed")
	}
	return nil
}
