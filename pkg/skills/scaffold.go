package skills

import (
	"bytes"
	"context"
	"embed"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

// Skill bundle template files
//
//go:embed templates/*
var templateFS embed.FS

const skillTemplateFile = "templates/SKILL.md.tmpl"

// starterTemplates maps embedded starter files to their destination
// paths inside a scaffolded bundle
var starterTemplates = map[string]string{
	"templates/basic-program.zig":  "assets/templates/basic-program.zig",
	"templates/build.zig":          "assets/templates/build.zig",
	"templates/build.zig.zon":      "assets/templates/build.zig.zon",
	"templates/cli-skeleton.zig":   "assets/templates/cli-skeleton.zig",
	"templates/library-module.zig": "assets/templates/library-module.zig",
	"templates/c-interop.zig":      "assets/templates/c-interop.zig",
}

// scaffoldDirs are the empty directories created in a new bundle
var scaffoldDirs = []string{"scripts", "references", "recipes"}

// ScaffoldData holds the data for SKILL.md template rendering
type ScaffoldData struct {
	Name       string
	ZigVersion string
}

// Scaffold creates a new skill bundle named name under outputDir and
// returns the bundle directory. It refuses to overwrite an existing
// bundle.
func Scaffold(ctx context.Context, name, outputDir string) (string, error) {
	if name == "" {
		return "", errors.New("skill name is required")
	}
	if !skillNamePattern.MatchString(name) {
		return "", errors.Errorf("skill name '%s' must use lowercase letters, numbers, and hyphens only", name)
	}

	skillDir := filepath.Join(outputDir, name)
	if _, err := os.Stat(filepath.Join(skillDir, SkillFileName)); err == nil {
		return "", errors.Errorf("skill '%s' already exists at %s", name, skillDir)
	}

	if err := os.MkdirAll(skillDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create skill directory")
	}

	rendered, err := renderSkillTemplate(ScaffoldData{
		Name:       name,
		ZigVersion: toolchain.DefaultVersion,
	})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(skillDir, SkillFileName), rendered, 0644); err != nil {
		return "", errors.Wrap(err, "failed to write SKILL.md")
	}

	for _, dir := range scaffoldDirs {
		if err := os.MkdirAll(filepath.Join(skillDir, dir), 0755); err != nil {
			return "", errors.Wrapf(err, "failed to create %s directory", dir)
		}
	}

	for src, dst := range starterTemplates {
		content, err := templateFS.ReadFile(src)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read embedded template %s", src)
		}

		dstPath := filepath.Join(skillDir, filepath.FromSlash(dst))
		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			return "", errors.Wrap(err, "failed to create assets directory")
		}
		if err := os.WriteFile(dstPath, content, 0644); err != nil {
			return "", errors.Wrapf(err, "failed to write %s", dst)
		}
	}

	logger.G(ctx).WithField("skill", name).WithField("dir", skillDir).Debug("Scaffolded skill bundle")
	return skillDir, nil
}

// renderSkillTemplate renders the embedded SKILL.md template
func renderSkillTemplate(data ScaffoldData) ([]byte, error) {
	content, err := templateFS.ReadFile(skillTemplateFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill template")
	}

	tmpl, err := template.New("skill").Parse(string(content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse skill template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "failed to render skill template")
	}

	return buf.Bytes(), nil
}
