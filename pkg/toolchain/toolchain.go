// Package toolchain detects which Zig compiler version a project targets.
// Detection runs a series of strategies in decreasing order of reliability,
// from asking the compiler itself down to scanning sources for syntax markers.
package toolchain

import "strings"

// Confidence indicates how reliable a detection result is
type Confidence string

const (
	// ConfidenceExplicit means the caller supplied the version directly
	ConfidenceExplicit Confidence = "explicit"
	// ConfidenceHigh means the version came from the compiler or an explicit declaration
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium means the version was inferred from code markers
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow means the version is a heuristic fallback
	ConfidenceLow Confidence = "low"
)

// Detection is the result of a version detection run
type Detection struct {
	Version    string     `json:"version"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
	Note       string     `json:"note,omitempty"`
}

// SupportedVersions lists the Zig releases the reference material tracks
var SupportedVersions = []string{
	"0.2.0", "0.3.0", "0.6.0", "0.7.1", "0.8.1",
	"0.9.1", "0.10.1", "0.11.0", "0.12.1",
	"0.13.0", "0.14.1", "0.15.2", "master",
}

// DefaultVersion is the version assumed when nothing can be detected
const DefaultVersion = "0.15.2"

// Normalize strips a leading "v" prefix and surrounding whitespace from a
// version string so "v0.15.2" and "0.15.2" compare equal
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	return strings.TrimPrefix(version, "v")
}

// IsDev reports whether the version refers to an unreleased compiler,
// either the symbolic "master"/"dev" names or a "-dev" snapshot like
// "0.16.0-dev.123+abcdef"
func IsDev(version string) bool {
	version = Normalize(version)
	if version == "master" || version == "dev" {
		return true
	}
	return strings.Contains(version, "-dev")
}

// Series returns the "major.minor" release series of a version,
// e.g. "0.15" for "0.15.2". Dev snapshots keep their numeric prefix
func Series(version string) string {
	version = Normalize(version)
	if idx := strings.IndexAny(version, "-+"); idx >= 0 {
		version = version[:idx]
	}
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// IsSupported reports whether the version is one of the releases the
// reference material tracks
func IsSupported(version string) bool {
	version = Normalize(version)
	for _, v := range SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}
