// Package config loads harness options from .subsuite.yml and pipeline
// definitions from their own YAML files, then overlays CLI flag values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ebarrett/subsuite/internal/protocol"
)

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Workers   int    `yaml:"workers"`
	FailFast  bool   `yaml:"fail_fast"`
	Format    string `yaml:"format"`
	ReportDir string `yaml:"report_dir"`
	Timeout   string `yaml:"timeout"`

	// Pipelines lists pipeline definition files. Empty means discovery
	// under .subsuite/.
	Pipelines []string `yaml:"pipelines"`

	// Select restricts which configured pipelines run, by name pattern.
	Select []string `yaml:"select"`

	OnlyCases []string `yaml:"only_case"`
	SkipCases []string `yaml:"skip_case"`

	Verbose bool `yaml:"verbose"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// FileName is the harness config file looked up at the root.
	FileName = ".subsuite.yml"
)

// Default returns the baseline configuration used when no flags or config
// file specify values.
func Default() Config {
	return Config{
		Format:    FormatPretty,
		ReportDir: "reports",
	}
}

// Load reads .subsuite.yml from the root when present. Missing files are
// ignored.
func Load(root string) (Config, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads an explicitly named config file. Unlike Load, a missing file
// is an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return merge(cfg, fileCfg), nil
}

func merge(base, override Config) Config {
	out := base

	if override.Workers > 0 {
		out.Workers = override.Workers
	}
	if override.FailFast {
		out.FailFast = true
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.ReportDir != "" {
		out.ReportDir = override.ReportDir
	}
	if override.Timeout != "" {
		out.Timeout = override.Timeout
	}
	if len(override.Pipelines) > 0 {
		out.Pipelines = append([]string{}, override.Pipelines...)
	}
	if len(override.Select) > 0 {
		out.Select = append([]string{}, override.Select...)
	}
	if len(override.OnlyCases) > 0 {
		out.OnlyCases = append([]string{}, override.OnlyCases...)
	}
	if len(override.SkipCases) > 0 {
		out.SkipCases = append([]string{}, override.SkipCases...)
	}
	if override.Verbose {
		out.Verbose = true
	}

	return out
}

// TimeoutDuration parses the configured per-worker timeout. Empty means no
// timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are
// present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Workers.Set {
		cfg.Workers = flags.Workers.Value
	}
	if flags.FailFast.Set {
		cfg.FailFast = flags.FailFast.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.ReportDir.Set {
		cfg.ReportDir = flags.ReportDir.Value
	}
	if flags.Timeout.Set {
		cfg.Timeout = flags.Timeout.Value
	}
	if len(flags.Pipelines.Values) > 0 {
		cfg.Pipelines = append([]string{}, flags.Pipelines.Values...)
	}
	if len(flags.Select.Values) > 0 {
		cfg.Select = append([]string{}, flags.Select.Values...)
	}
	if len(flags.OnlyCases.Values) > 0 {
		cfg.OnlyCases = append([]string{}, flags.OnlyCases.Values...)
	}
	if len(flags.SkipCases.Values) > 0 {
		cfg.SkipCases = append([]string{}, flags.SkipCases.Values...)
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was
// set explicitly.
type FlagValues struct {
	Workers   IntFlag
	FailFast  BoolFlag
	Format    StringFlag
	ReportDir StringFlag
	Timeout   StringFlag
	Pipelines SliceFlag
	Select    SliceFlag
	OnlyCases SliceFlag
	SkipCases SliceFlag
	Verbose   BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// IntFlag represents an integer flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// BoolFlag represents a boolean flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// Pipeline is one framework pipeline definition, loaded from its own YAML
// file. The declared protocol is the only capability contract the harness
// trusts; it never assumes a framework speaks a version it has not declared.
type Pipeline struct {
	Name     string            `yaml:"name"`
	Protocol string            `yaml:"protocol"`
	List     []string          `yaml:"list"`
	Run      []string          `yaml:"run"`
	Report   string            `yaml:"report"`
	Env      map[string]string `yaml:"env"`
}

// LoadPipeline reads and validates one pipeline definition.
func LoadPipeline(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline %q: %w", path, err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline %q: %w", path, err)
	}

	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(p.Run) == 0 {
		return Pipeline{}, fmt.Errorf("pipeline %q declares no run command", p.Name)
	}
	if _, err := protocol.Resolve(p.Protocol); err != nil {
		return Pipeline{}, fmt.Errorf("pipeline %q: %w", p.Name, err)
	}
	return p, nil
}
