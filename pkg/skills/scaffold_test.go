package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

func TestScaffold(t *testing.T) {
	outputDir := t.TempDir()

	skillDir, err := Scaffold(context.Background(), "my-skill", outputDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "my-skill"), skillDir)

	skill, err := Load(skillDir)
	require.NoError(t, err)
	assert.Equal(t, "my-skill", skill.Name)
	assert.NotEmpty(t, skill.Description)
	assert.Contains(t, skill.Content, "# my-skill")
	assert.Contains(t, skill.Content, toolchain.DefaultVersion)

	for _, dir := range []string{"scripts", "references", "recipes", filepath.Join("assets", "templates")} {
		info, err := os.Stat(filepath.Join(skillDir, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}

	for _, name := range []string{
		"basic-program.zig",
		"build.zig",
		"build.zig.zon",
		"cli-skeleton.zig",
		"library-module.zig",
		"c-interop.zig",
	} {
		content, err := os.ReadFile(filepath.Join(skillDir, "assets", "templates", name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, content, name)
	}
}

func TestScaffoldedSkillPassesValidation(t *testing.T) {
	skillDir, err := Scaffold(context.Background(), "fresh-skill", t.TempDir())
	require.NoError(t, err)

	report := NewValidator(skillDir).Validate()
	assert.True(t, report.OK(), "errors: %v", report.Errors)

	// Only empty-directory warnings are acceptable for a fresh scaffold
	for _, w := range report.Warnings {
		assert.Contains(t, w, "directory is empty")
	}
}

func TestScaffoldRejectsInvalidName(t *testing.T) {
	tests := []struct {
		name     string
		skill    string
		expected string
	}{
		{name: "empty", skill: "", expected: "skill name is required"},
		{name: "spaces", skill: "My Skill", expected: "lowercase letters, numbers, and hyphens"},
		{name: "underscore", skill: "my_skill", expected: "lowercase letters, numbers, and hyphens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scaffold(context.Background(), tt.skill, t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestScaffoldRefusesOverwrite(t *testing.T) {
	outputDir := t.TempDir()

	skillDir, err := Scaffold(context.Background(), "my-skill", outputDir)
	require.NoError(t, err)

	customized := "---\nname: my-skill\ndescription: Customized\n---\n\nHand-edited content.\n"
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, SkillFileName), []byte(customized), 0o644))

	_, err = Scaffold(context.Background(), "my-skill", outputDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// The hand-edited file is untouched
	content, err := os.ReadFile(filepath.Join(skillDir, SkillFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "Hand-edited content."))
}
