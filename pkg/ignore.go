package dupedetector

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// IgnoreManager holds regular expressions for paths the scanner skips.
// Patterns are matched against the path relative to the scanned root, with
// forward slashes.
type IgnoreManager struct {
	patterns []*regexp.Regexp
}

// NewIgnoreManager compiles the given patterns
func NewIgnoreManager(patterns []string) (*IgnoreManager, error) {
	im := &IgnoreManager{
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		if err := im.AddPattern(pattern); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// AddPattern adds a new ignore pattern
func (im *IgnoreManager) AddPattern(patternStr string) error {
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %s - %w", patternStr, err)
	}

	im.patterns = append(im.patterns, pattern)
	return nil
}

// ShouldIgnore checks if a path should be ignored based on patterns
func (im *IgnoreManager) ShouldIgnore(relativePath string) bool {
	if im == nil {
		return false
	}

	normalisedPath := filepath.ToSlash(relativePath)
	for _, pattern := range im.patterns {
		if pattern.MatchString(normalisedPath) {
			return true
		}
	}

	return false
}

// HasPatterns returns true if there are any ignore patterns loaded
func (im *IgnoreManager) HasPatterns() bool {
	return im != nil && len(im.patterns) > 0
}
