package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
)

var (
	zonMinVersionPattern = regexp.MustCompile(`\.minimum_zig_version\s*=\s*"([^"]+)"`)

	// Modern build API markers (0.11+)
	stdBuildPattern      = regexp.MustCompile(`\bstd\.Build\b`)
	bPathPattern         = regexp.MustCompile(`\bb\.path\(`)
	structLiteralPattern = regexp.MustCompile(`addExecutable\(\.\{`)

	// Legacy build API markers (pre-0.11)
	stdBuildBuilderPattern = regexp.MustCompile(`\bstd\.build\.Builder\b`)
	legacyAddPattern       = regexp.MustCompile(`addExecutable\("[^"]+",\s*"[^"]+"`)

	// Source syntax markers
	modernForLoopPattern = regexp.MustCompile(`for\s*\([^)]+,\s*0\.\.\)`)
	asyncAwaitPattern    = regexp.MustCompile(`\b(async|await)\b`)
)

const defaultCommandTimeout = 5 * time.Second

// Detector detects the Zig version a project targets
type Detector struct {
	projectDir string
	timeout    time.Duration
	zigVersion func(ctx context.Context) (string, error)
}

// Option is a function that configures a Detector
type Option func(*Detector) error

// WithProjectDir sets the project directory to analyze
func WithProjectDir(dir string) Option {
	return func(d *Detector) error {
		if dir == "" {
			return errors.New("project directory cannot be empty")
		}
		d.projectDir = dir
		return nil
	}
}

// WithCommandTimeout sets the timeout for running the zig compiler
func WithCommandTimeout(timeout time.Duration) Option {
	return func(d *Detector) error {
		if timeout <= 0 {
			return errors.New("command timeout must be positive")
		}
		d.timeout = timeout
		return nil
	}
}

// WithZigCommand overrides how the detector invokes the zig compiler
func WithZigCommand(fn func(ctx context.Context) (string, error)) Option {
	return func(d *Detector) error {
		if fn == nil {
			return errors.New("zig command function cannot be nil")
		}
		d.zigVersion = fn
		return nil
	}
}

// NewDetector creates a new version detector
func NewDetector(opts ...Option) (*Detector, error) {
	d := &Detector{
		projectDir: ".",
		timeout:    defaultCommandTimeout,
	}
	d.zigVersion = d.runZigVersion

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Detect runs all detection strategies in order of reliability and returns
// the first match. When nothing matches it falls back to the current stable
// version with low confidence
func (d *Detector) Detect(ctx context.Context) Detection {
	if det := d.detectFromCommand(ctx); det != nil {
		return *det
	}
	if det := d.detectFromZon(ctx); det != nil {
		return *det
	}
	if det := d.detectFromBuildScript(ctx); det != nil {
		return *det
	}
	if det := d.detectFromSources(ctx); det != nil {
		return *det
	}

	logger.G(ctx).Debug("no version detected, defaulting to current stable")
	return Detection{
		Version:    DefaultVersion,
		Confidence: ConfidenceLow,
		Source:     "default",
		Note:       "No detection markers found, using current stable version",
	}
}

// detectFromCommand asks the zig compiler on PATH for its version
func (d *Detector) detectFromCommand(ctx context.Context) *Detection {
	log := logger.G(ctx)

	output, err := d.zigVersion(ctx)
	if err != nil {
		log.WithError(err).Debug("zig version command unavailable")
		return nil
	}

	version := strings.TrimSpace(output)
	if version == "" {
		return nil
	}

	log.WithField("version", version).Debug("found version from zig command")
	return &Detection{
		Version:    version,
		Confidence: ConfidenceHigh,
		Source:     "zig_command",
	}
}

func (d *Detector) runZigVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "zig", "version")
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to run zig version")
	}
	return string(output), nil
}

// detectFromZon reads the minimum_zig_version declared in build.zig.zon
func (d *Detector) detectFromZon(ctx context.Context) *Detection {
	log := logger.G(ctx)

	content, err := os.ReadFile(filepath.Join(d.projectDir, "build.zig.zon"))
	if err != nil {
		log.WithError(err).Debug("no build.zig.zon found")
		return nil
	}

	match := zonMinVersionPattern.FindSubmatch(content)
	if match == nil {
		return nil
	}

	version := string(match[1])
	log.WithField("version", version).Debug("found minimum_zig_version in build.zig.zon")
	return &Detection{
		Version:    version,
		Confidence: ConfidenceHigh,
		Source:     "build.zig.zon",
		Note:       "This is the minimum version, actual version may be newer",
	}
}

// detectFromBuildScript analyzes build.zig for build API generation markers
func (d *Detector) detectFromBuildScript(ctx context.Context) *Detection {
	log := logger.G(ctx)

	content, err := os.ReadFile(filepath.Join(d.projectDir, "build.zig"))
	if err != nil {
		log.WithError(err).Debug("no build.zig found")
		return nil
	}

	modern := stdBuildPattern.Match(content) ||
		bPathPattern.Match(content) ||
		structLiteralPattern.Match(content)
	if modern {
		log.Debug("detected modern build API (0.11+)")
		return &Detection{
			Version:    "0.15.2",
			Confidence: ConfidenceMedium,
			Source:     "build.zig_modern_api",
			Note:       "Detected 0.11+ API, exact version unknown",
		}
	}

	legacy := stdBuildBuilderPattern.Match(content) ||
		legacyAddPattern.Match(content)
	if legacy {
		log.Debug("detected legacy build API (pre-0.11)")
		return &Detection{
			Version:    "0.10.1",
			Confidence: ConfidenceMedium,
			Source:     "build.zig_legacy_api",
			Note:       "Detected pre-0.11 API",
		}
	}

	return nil
}

// detectFromSources scans .zig files for version-revealing syntax
func (d *Detector) detectFromSources(ctx context.Context) *Detection {
	log := logger.G(ctx)

	matches, err := doublestar.Glob(os.DirFS(d.projectDir), "**/*.zig")
	if err != nil || len(matches) == 0 {
		log.Debug("no .zig source files found")
		return nil
	}

	log.WithField("files", len(matches)).Debug("scanning .zig files for syntax markers")

	var hasModernForLoop, hasAsyncAwait bool
	for _, match := range matches {
		content, err := os.ReadFile(filepath.Join(d.projectDir, match))
		if err != nil {
			log.WithError(err).WithField("file", match).Debug("failed to read source file")
			continue
		}

		if modernForLoopPattern.Match(content) {
			hasModernForLoop = true
		}
		if asyncAwaitPattern.Match(content) {
			hasAsyncAwait = true
		}
	}

	if hasModernForLoop {
		return &Detection{
			Version:    "0.13.0",
			Confidence: ConfidenceMedium,
			Source:     "source_syntax_for_loop",
			Note:       "Detected modern for loop syntax (0.13+)",
		}
	}

	if hasAsyncAwait {
		return &Detection{
			Version:    "0.10.1",
			Confidence: ConfidenceMedium,
			Source:     "source_syntax_async",
			Note:       "Detected async/await keywords (0.9-0.10)",
		}
	}

	return nil
}
