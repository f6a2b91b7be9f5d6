// Package discovery locates pipeline definition files.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoPipelines indicates that no pipeline definitions were found.
var ErrNoPipelines = errors.New("no pipelines discovered")

// Pipelines returns pipeline definition paths. If explicit paths are provided
// they are validated and returned in the order given. Otherwise the default
// .subsuite directory glob is used and results are sorted lexicographically.
func Pipelines(root string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	matches := make(map[string]struct{})
	for _, pattern := range []string{
		filepath.Join(root, ".subsuite", "*.yml"),
		filepath.Join(root, ".subsuite", "*.yaml"),
	} {
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range found {
			matches[m] = struct{}{}
		}
	}

	if len(matches) == 0 {
		return nil, ErrNoPipelines
	}

	paths := make([]string, 0, len(matches))
	for p := range matches {
		paths = append(paths, relOrClean(root, p))
	}
	sort.Strings(paths)
	return paths, nil
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	for _, input := range explicit {
		cleaned := input
		if !filepath.IsAbs(cleaned) {
			cleaned = filepath.Join(root, cleaned)
		}
		info, err := os.Stat(cleaned)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("pipeline %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("pipeline %q is a directory", input)
		}
		rel := relOrClean(root, cleaned)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}
	if len(resolved) == 0 {
		return nil, ErrNoPipelines
	}
	return resolved, nil
}

func relOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
