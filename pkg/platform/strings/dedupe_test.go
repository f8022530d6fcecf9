package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"react"},
			expected: []string{"react"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  react  ", "go  ", "  python"},
			expected: []string{"react", "go", "python"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"react", "go", "react", "python", "go"},
			expected: []string{"react", "go", "python"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"react", "", "  ", "go"},
			expected: []string{"react", "go"},
		},
		{
			name:     "combined: trim, dedupe, remove empty",
			input:    []string{"  react ", "go", "react", "", "  ", "go"},
			expected: []string{"react", "go"},
		},
		{
			name:     "case sensitive: variants are distinct",
			input:    []string{"React", "react"},
			expected: []string{"React", "react"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
