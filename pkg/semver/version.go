package semver

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "semver:version"

// DefaultVersion is assigned to dialects registered without a version.
const DefaultVersion = "1.0.0"

// NormalizeVersion validates a version string and returns its canonical
// form ("1" becomes "1.0.0"). Empty input yields DefaultVersion.
func NormalizeVersion(version string) (string, error) {
	if version == "" {
		return DefaultVersion, nil
	}
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, version, err)
	}
	return sv.String(), nil
}

// SatisfiesRange checks if a version string satisfies a range. An empty
// range is satisfied by any valid version.
func SatisfiesRange(version, rangeStr string) bool {
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}
	if rangeStr == "" {
		return true
	}

	if IsMajorOnly(rangeStr) {
		return int(sv.Major()) == ExtractMajorFromRange(rangeStr)
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}
