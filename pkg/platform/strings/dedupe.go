// Package strings provides string slice normalization helpers.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Skill tags and similar free-form lists pass through here before any
// set arithmetic; a duplicated tag would otherwise count twice.
//
// Example:
//
//	DedupeAndTrim([]string{"  react ", "go", "react", "", "  "})
//	// Returns: []string{"react", "go"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
