package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ebarrett/subsuite/internal/config"
	"github.com/ebarrett/subsuite/internal/filter"
	"github.com/ebarrett/subsuite/internal/pipeline"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured pipelines and their test cases",
		RunE:  runList,
	}
}

// listEntry is one pipeline in the list output schema.
type listEntry struct {
	Name     string   `json:"name"`
	Protocol string   `json:"protocol"`
	Cases    []string `json:"cases"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	specs, err := loadSpecs(root, cfg)
	if err != nil {
		return err
	}

	only, err := filter.Compile(cfg.OnlyCases)
	if err != nil {
		return err
	}
	skip, err := filter.Compile(cfg.SkipCases)
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(specs))
	for _, spec := range specs {
		env := os.Environ()
		for k, v := range spec.Env {
			env = append(env, k+"="+v)
		}
		cases, err := pipeline.ListCases(cmd.Context(), spec.Pipeline, root, env)
		if err != nil {
			return err
		}
		entries = append(entries, listEntry{
			Name:     spec.Name,
			Protocol: spec.Protocol,
			Cases:    filter.Select(cases, only, skip),
		})
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s (%s)\n", e.Name, e.Protocol)
			for _, c := range e.Cases {
				fmt.Fprintf(out, "  %s\n", c)
			}
		}
	case config.FormatJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	return nil
}
