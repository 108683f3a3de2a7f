package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSkillContent = `---
name: zig-programming
description: Zig programming assistance with recipes and references
---

# Zig Programming

## When to Use This Skill

Use this skill when writing, reviewing, or debugging Zig code. Detect the
toolchain version first, then consult the bundled references.

## Resources

Helper scripts live in ` + "`scripts/build_index.sh`" + `.
`

func setupValidSkill(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(validSkillContent), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "scripts", "build_index.sh"), []byte("#!/bin/sh\nzigskill index build\n"), 0o755))
	return tmpDir
}

func TestValidateValidSkill(t *testing.T) {
	tmpDir := setupValidSkill(t)

	report := NewValidator(tmpDir).Validate()
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateMissingSkillFile(t *testing.T) {
	report := NewValidator(t.TempDir()).Validate()
	assert.False(t, report.OK())
	assert.Contains(t, report.Errors, "SKILL.md is required but not found")

	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKILL.md is required but not found")
}

func TestValidateFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		errors   []string
		warnings []string
	}{
		{
			name:    "no frontmatter",
			content: "# Heading\n\nBody without frontmatter.\n",
			errors:  []string{"SKILL.md must start with YAML frontmatter"},
		},
		{
			name:    "unterminated frontmatter",
			content: "---\nname: test\n",
			errors:  []string{"invalid YAML frontmatter format"},
		},
		{
			name:    "missing name",
			content: "---\ndescription: A description\n---\n\nBody.\n",
			errors:  []string{"'name' field is required in frontmatter"},
		},
		{
			name:    "missing description",
			content: "---\nname: test-skill\n---\n\nBody.\n",
			errors:  []string{"'description' field is required in frontmatter"},
		},
		{
			name:     "uppercase name",
			content:  "---\nname: Test_Skill\ndescription: A description\n---\n\nBody.\n",
			warnings: []string{"skill name 'Test_Skill' should use lowercase letters, numbers, and hyphens only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(tt.content), 0o644))

			report := NewValidator(tmpDir).Validate()
			for _, e := range tt.errors {
				assert.Contains(t, report.Errors, e)
			}
			for _, w := range tt.warnings {
				assert.Contains(t, report.Warnings, w)
			}
		})
	}
}

func TestValidateBodyQuality(t *testing.T) {
	t.Run("short body", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := "---\nname: test-skill\ndescription: A description\n---\n\nShort.\n"
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(content), 0o644))

		report := NewValidator(tmpDir).Validate()
		assert.True(t, report.OK())
		assert.Contains(t, report.Warnings, "SKILL.md body seems very short")
	})

	t.Run("long body", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := "---\nname: test-skill\ndescription: A description\n---\n\n" + strings.Repeat("Reference material belongs elsewhere. ", 600)
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(content), 0o644))

		report := NewValidator(tmpDir).Validate()
		assert.Contains(t, report.Warnings, "SKILL.md body is very long (>20k chars), consider moving content to references/")
	})

	t.Run("second person language", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := "---\nname: test-skill\ndescription: A description\n---\n\n" +
			"You should always check the Zig version before answering. Your code needs to compile cleanly before being presented as final output.\n"
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(content), 0o644))

		report := NewValidator(tmpDir).Validate()
		assert.Contains(t, report.Warnings, "avoid second-person language (you/your) in skills")
		// One warning even when several patterns match
		count := 0
		for _, w := range report.Warnings {
			if strings.Contains(w, "second-person") {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestValidateDirectories(t *testing.T) {
	t.Run("file where directory expected", func(t *testing.T) {
		tmpDir := setupValidSkill(t)
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "references"), []byte("not a dir"), 0o644))

		report := NewValidator(tmpDir).Validate()
		assert.False(t, report.OK())
		assert.Contains(t, report.Errors, "references exists but is not a directory")
	})

	t.Run("empty directory", func(t *testing.T) {
		tmpDir := setupValidSkill(t)
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "recipes"), 0o755))

		report := NewValidator(tmpDir).Validate()
		assert.True(t, report.OK())
		assert.Contains(t, report.Warnings, "recipes/ directory is empty")
	})

	t.Run("absent directories are fine", func(t *testing.T) {
		tmpDir := setupValidSkill(t)

		report := NewValidator(tmpDir).Validate()
		assert.Empty(t, report.Warnings)
	})
}

func TestValidateFileReferences(t *testing.T) {
	tmpDir := t.TempDir()
	content := "---\nname: test-skill\ndescription: A description\n---\n\n" +
		"Run `scripts/convert.sh` to rebuild, then read `references/core-language.md` for details on semantics and syntax.\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, SkillFileName), []byte(content), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "scripts", "convert.sh"), []byte("#!/bin/sh\n"), 0o755))

	report := NewValidator(tmpDir).Validate()
	assert.True(t, report.OK())
	assert.Contains(t, report.Warnings, "referenced file not found: references/core-language.md")
	assert.NotContains(t, report.Warnings, "referenced file not found: scripts/convert.sh")
}

func TestReportErr(t *testing.T) {
	report := &Report{}
	assert.NoError(t, report.Err())

	report.addError("first problem")
	report.addError("second problem")
	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first problem")
	assert.Contains(t, err.Error(), "second problem")
}
