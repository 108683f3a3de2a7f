// Package references resolves which reference documentation subtree serves a
// given Zig version. Versions without their own reference snapshot fall back
// to the nearest documented release, with warnings describing the syntax and
// API differences the reader should expect.
package references

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

// LatestDirName is the directory holding references for master builds
const LatestDirName = "latest"

// DefaultAvailableVersions lists the versions with their own reference
// snapshot, in order of preference for fallbacks
var DefaultAvailableVersions = []string{
	"0.15.2",
}

// DefaultFallbacks maps versions without reference snapshots onto the
// nearest documented release. Master and dev builds map onto the latest
// documentation snapshot
func DefaultFallbacks() map[string]string {
	return map[string]string{
		// 0.15.x series
		"0.15.0": "0.15.2",
		"0.15.1": "0.15.2",

		// 0.14.x series, close enough with minor changes
		"0.14.0": "0.15.2",
		"0.14.1": "0.15.2",

		// 0.13.x series, for loop syntax same, stdlib similar
		"0.13.0": "0.15.2",
		"0.13.1": "0.15.2",

		// 0.12.x series, for loop syntax differs
		"0.12.0": "0.15.2",
		"0.12.1": "0.15.2",

		// 0.11.x series, build API same, for loops different
		"0.11.0": "0.15.2",
		"0.11.1": "0.15.2",

		// Older versions, significant differences
		"0.10.0": "0.15.2",
		"0.10.1": "0.15.2",
		"0.9.0":  "0.15.2",
		"0.9.1":  "0.15.2",

		// Master and development builds
		"master": LatestDirName,
		"dev":    LatestDirName,
	}
}

// Resolution describes which reference subtree serves a version.
// JSON field names match the output consumed by skill tooling
type Resolution struct {
	Version          string   `json:"version"`
	ReferenceVersion string   `json:"reference_version"`
	Path             string   `json:"path"`
	AbsolutePath     string   `json:"absolute_path"`
	Exists           bool     `json:"exists"`
	Confidence       string   `json:"confidence,omitempty"`
	Source           string   `json:"source,omitempty"`
	Fallback         bool     `json:"fallback"`
	FallbackReason   string   `json:"fallback_reason,omitempty"`
	Warnings         []string `json:"warnings"`
}

// Resolver maps Zig versions onto reference documentation directories
type Resolver struct {
	skillRoot string
	available []string
	fallbacks map[string]string
}

// Option is a function that configures a Resolver
type Option func(*Resolver) error

// WithAvailableVersions overrides the versions that have reference snapshots
func WithAvailableVersions(versions ...string) Option {
	return func(r *Resolver) error {
		if len(versions) == 0 {
			return errors.New("at least one available version is required")
		}
		r.available = versions
		return nil
	}
}

// WithFallbacks overrides the version fallback mapping
func WithFallbacks(fallbacks map[string]string) Option {
	return func(r *Resolver) error {
		if fallbacks == nil {
			return errors.New("fallback mapping cannot be nil")
		}
		r.fallbacks = fallbacks
		return nil
	}
}

// NewResolver creates a resolver rooted at the skill bundle directory
func NewResolver(skillRoot string, opts ...Option) (*Resolver, error) {
	if skillRoot == "" {
		return nil, errors.New("skill root cannot be empty")
	}

	r := &Resolver{
		skillRoot: skillRoot,
		available: DefaultAvailableVersions,
		fallbacks: DefaultFallbacks(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolve returns the reference subtree serving the given version
func (r *Resolver) Resolve(version string) Resolution {
	version = toolchain.Normalize(version)

	var (
		warnings         []string
		fallback         bool
		fallbackReason   string
		referenceVersion string
	)

	switch {
	case r.isAvailable(version):
		referenceVersion = version
	case r.fallbacks[version] != "":
		referenceVersion = r.fallbacks[version]
		fallback = true
		fallbackReason = fmt.Sprintf("No references for %s, using %s", version, referenceVersion)
		warnings = append(warnings, fallbackReason)
		warnings = append(warnings, seriesWarnings(version)...)
	case toolchain.IsDev(version):
		// Dev snapshots like 0.16.0-dev.123+abcdef track master
		referenceVersion = LatestDirName
		fallback = true
		fallbackReason = fmt.Sprintf("No references for %s, using %s", version, referenceVersion)
		warnings = append(warnings, fallbackReason)
	default:
		referenceVersion = toolchain.DefaultVersion
		fallback = true
		fallbackReason = fmt.Sprintf("Unknown version %s, defaulting to %s", version, referenceVersion)
		warnings = append(warnings, fallbackReason)
		warnings = append(warnings, "Consider upgrading to a supported version")
	}

	relPath := referencePath(referenceVersion)
	absPath := filepath.Join(r.skillRoot, relPath)
	exists := dirExists(absPath)

	if !exists {
		warnings = append(warnings, fmt.Sprintf("Warning: Reference directory %s does not exist!", relPath))
		warnings = append(warnings, "Run 'zigskill docs consolidate' to generate references for this version")
	}

	return Resolution{
		Version:          version,
		ReferenceVersion: referenceVersion,
		Path:             relPath,
		AbsolutePath:     absPath,
		Exists:           exists,
		Fallback:         fallback,
		FallbackReason:   fallbackReason,
		Warnings:         warnings,
	}
}

// ResolveDetection resolves a detection result, carrying over its
// confidence and source
func (r *Resolver) ResolveDetection(detection toolchain.Detection) Resolution {
	resolution := r.Resolve(detection.Version)
	resolution.Confidence = string(detection.Confidence)
	resolution.Source = detection.Source
	return resolution
}

func (r *Resolver) isAvailable(version string) bool {
	for _, v := range r.available {
		if v == version {
			return true
		}
	}
	return false
}

// seriesWarnings returns warnings about differences between the requested
// release series and the documented one
func seriesWarnings(version string) []string {
	switch toolchain.Series(version) {
	case "0.12", "0.11":
		return []string{
			"Note: For loop syntax differs from 0.13+. See references/version-differences.md",
		}
	case "0.10", "0.9":
		return []string{
			"Warning: Major differences (async/await removed in 0.11+, build API changed)",
			fmt.Sprintf("Strongly recommend upgrading to %s. See references/version-differences.md", toolchain.DefaultVersion),
		}
	}
	if isVeryOld(version) {
		return []string{
			"Warning: Very old version. References may not be applicable.",
			fmt.Sprintf("Highly recommend upgrading to %s", toolchain.DefaultVersion),
		}
	}
	return nil
}

// isVeryOld reports whether the version predates the 0.9 series.
// Versions without a numeric minor, like "master", are not old
func isVeryOld(version string) bool {
	parts := strings.Split(toolchain.Series(version), ".")
	if len(parts) != 2 {
		return false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return parts[0] == "0" && minor < 9
}

// referencePath returns the bundle-relative directory for a reference version
func referencePath(referenceVersion string) string {
	if referenceVersion == LatestDirName {
		return "references/" + LatestDirName
	}
	return "references/v" + referenceVersion
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
