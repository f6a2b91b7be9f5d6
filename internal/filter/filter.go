// Package filter implements the name patterns used to select pipelines and
// test cases: plain strings match case-insensitive substrings, /slash-wrapped/
// strings compile to regular expressions.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and
// regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// MatchAny reports whether any pattern matches. An empty pattern list matches
// nothing.
func MatchAny(patterns []Pattern, s string) bool {
	for _, p := range patterns {
		if p.Match(s) {
			return true
		}
	}
	return false
}

// Select keeps names matching the only patterns (all, when none are given)
// and drops names matching the skip patterns. Input order is preserved.
func Select(names []string, only, skip []Pattern) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if len(only) > 0 && !MatchAny(only, name) {
			continue
		}
		if MatchAny(skip, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
