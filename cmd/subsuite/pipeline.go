package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ebarrett/subsuite/internal/config"
	"github.com/ebarrett/subsuite/internal/discovery"
	"github.com/ebarrett/subsuite/internal/filter"
	"github.com/ebarrett/subsuite/internal/pipeline"
)

func workingDir() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return root, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := workingDir()
	if err != nil {
		return config.Config{}, "", err
	}

	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, nil
}

// loadSpecs discovers pipeline definitions, loads them and applies the
// --select pipeline filter. Case resolution is deferred to each run.
func loadSpecs(root string, cfg config.Config) ([]pipeline.Spec, error) {
	paths, err := discovery.Pipelines(root, cfg.Pipelines)
	if err != nil {
		if errors.Is(err, discovery.ErrNoPipelines) {
			return nil, fmt.Errorf("no pipelines found under %s; specify --pipeline to provide files", filepath.Join(root, ".subsuite"))
		}
		return nil, err
	}

	selectPatterns, err := filter.Compile(cfg.Select)
	if err != nil {
		return nil, err
	}

	specs := make([]pipeline.Spec, 0, len(paths))
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		def, err := config.LoadPipeline(path)
		if err != nil {
			return nil, err
		}
		if len(selectPatterns) > 0 && !filter.MatchAny(selectPatterns, def.Name) {
			continue
		}
		specs = append(specs, pipeline.Spec{Pipeline: def})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("no pipelines match the given filters")
	}
	return specs, nil
}

// coordinatorOptions translates config into coordinator options. The renderer
// is left unset; run wires one in for pretty output.
func coordinatorOptions(cfg config.Config, root string, log zerolog.Logger) (pipeline.Options, error) {
	only, err := filter.Compile(cfg.OnlyCases)
	if err != nil {
		return pipeline.Options{}, err
	}
	skip, err := filter.Compile(cfg.SkipCases)
	if err != nil {
		return pipeline.Options{}, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return pipeline.Options{}, err
	}

	reportDir := cfg.ReportDir
	if reportDir != "" && !filepath.IsAbs(reportDir) {
		reportDir = filepath.Join(root, reportDir)
	}

	return pipeline.Options{
		Workers:   cfg.Workers,
		Timeout:   timeout,
		FailFast:  cfg.FailFast,
		ReportDir: reportDir,
		Dir:       root,
		OnlyCases: only,
		SkipCases: skip,
		Log:       log,
	}, nil
}
