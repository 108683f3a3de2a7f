package skills

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
)

// packageSizeWarnBytes is the archive size above which Package logs a
// size warning
const packageSizeWarnBytes = 10 * 1024 * 1024

// DefaultExcludePatterns are glob patterns always excluded from skill
// packages. Patterns match against slash-separated paths relative to the
// skill directory and against bare file names.
var DefaultExcludePatterns = []string{
	".*",
	".*/**",
	"**/.*/**",
	"*.zip",
	"zig-cache/**",
	"**/zig-cache/**",
	"zig-out/**",
	"**/zig-out/**",
}

// Packager creates distributable zip archives of a skill bundle
type Packager struct {
	skillDir  string
	outputDir string
	excludes  []glob.Glob
}

// PackagerOption is a function that configures a Packager
type PackagerOption func(*Packager) error

// WithOutputDir sets the directory the archive is written to
func WithOutputDir(dir string) PackagerOption {
	return func(p *Packager) error {
		if dir == "" {
			return errors.New("output directory cannot be empty")
		}
		p.outputDir = dir
		return nil
	}
}

// WithExcludePatterns adds glob patterns to exclude from the archive
func WithExcludePatterns(patterns ...string) PackagerOption {
	return func(p *Packager) error {
		for _, pattern := range patterns {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return errors.Wrapf(err, "invalid exclude pattern %q", pattern)
			}
			p.excludes = append(p.excludes, g)
		}
		return nil
	}
}

// NewPackager creates a packager for the given skill directory. The
// default exclude patterns are always applied.
func NewPackager(skillDir string, opts ...PackagerOption) (*Packager, error) {
	p := &Packager{
		skillDir:  skillDir,
		outputDir: ".",
	}

	if err := WithExcludePatterns(DefaultExcludePatterns...)(p); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Package creates the zip archive and returns its path. Archive entries
// are rooted at the skill directory name so the bundle unpacks into its
// own folder.
func (p *Packager) Package(ctx context.Context) (string, error) {
	absSkillDir, err := filepath.Abs(p.skillDir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve skill directory")
	}
	if info, err := os.Stat(absSkillDir); err != nil || !info.IsDir() {
		return "", errors.Errorf("skill directory not found: %s", p.skillDir)
	}

	name := filepath.Base(absSkillDir)
	if skill, err := Load(p.skillDir); err == nil && skill.Name != "" {
		name = skill.Name
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	zipPath := filepath.Join(p.outputDir, name+".zip")
	absZipPath, err := filepath.Abs(zipPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve archive path")
	}

	logger.G(ctx).WithField("package", zipPath).Info("Creating skill package")

	f, err := os.Create(zipPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create archive file")
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	prefix := filepath.Base(absSkillDir)

	err = filepath.WalkDir(absSkillDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filePath == absZipPath {
			return nil
		}

		rel, err := filepath.Rel(absSkillDir, filePath)
		if err != nil {
			return errors.Wrap(err, "failed to compute relative path")
		}
		rel = filepath.ToSlash(rel)

		if p.excluded(rel) {
			logger.G(ctx).WithField("file", rel).Debug("Excluded from package")
			return nil
		}

		w, err := zw.Create(prefix + "/" + rel)
		if err != nil {
			return errors.Wrapf(err, "failed to add %s to archive", rel)
		}

		src, err := os.Open(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", rel)
		}
		defer src.Close()

		if _, err := io.Copy(w, src); err != nil {
			return errors.Wrapf(err, "failed to write %s to archive", rel)
		}

		logger.G(ctx).WithField("file", rel).Debug("Added to package")
		return nil
	})
	if err != nil {
		zw.Close()
		return "", err
	}

	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize archive")
	}

	if info, err := os.Stat(zipPath); err == nil {
		sizeMB := float64(info.Size()) / (1024 * 1024)
		if info.Size() > packageSizeWarnBytes {
			logger.G(ctx).WithField("size_mb", sizeMB).Warn("Package is large, consider reducing size")
		} else {
			logger.G(ctx).WithField("size_mb", sizeMB).Debug("Package size")
		}
	}

	return zipPath, nil
}

// excluded reports whether a relative path matches any exclude pattern
func (p *Packager) excluded(rel string) bool {
	base := path.Base(rel)
	for _, g := range p.excludes {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}
