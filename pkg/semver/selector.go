// Package semver parses dialect selectors and matches them against the
// versions dialects are registered with.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const logPrefix = "semver:selector"

// Selector is a parsed dialect selector such as "extjsdirect@^1.0".
type Selector struct {
	// Name is the dialect name (e.g. "extjsdirect").
	Name string
	// Range is the version constraint; empty means any version.
	Range string
	// Raw input string
	Raw string
}

var (
	dialectNameRegex  = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseSelector parses a dialect selector.
//
// Supported formats:
//   - extjsdirect           (any version)
//   - extjsdirect@1         (major only)
//   - extjsdirect@1.0.0     (exact version)
//   - extjsdirect@^1.2.0    (caret range)
//   - extjsdirect@>=1.0.0   (comparison range)
func ParseSelector(input string) (*Selector, error) {
	raw := strings.TrimSpace(input)

	name, rangeStr, hasAt := strings.Cut(raw, "@")
	if hasAt && rangeStr == "" {
		return nil, fmt.Errorf("%s - empty version range: %s", logPrefix, raw)
	}
	if !ValidateDialectName(name) {
		return nil, fmt.Errorf("%s - invalid dialect name: %q", logPrefix, raw)
	}

	return &Selector{Name: name, Range: rangeStr, Raw: raw}, nil
}

// String renders the selector back to its canonical form.
func (s *Selector) String() string {
	if s.Range == "" {
		return s.Name
	}
	return s.Name + "@" + s.Range
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	major, err := strconv.Atoi(rangeStr)
	if err != nil {
		return -1
	}
	return major
}

// ValidateDialectName validates a dialect name (lowercase letters, digits, dots, hyphens, underscores).
func ValidateDialectName(name string) bool {
	return dialectNameRegex.MatchString(name)
}
