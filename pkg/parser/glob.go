package parser

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ExpandReports expands report paths and glob patterns into a sorted,
// deduplicated list. A pattern without matches is kept as a literal path so
// the later open fails with a useful ErrReportIO.
func ExpandReports(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid report pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(result)
	return result, nil
}
