package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFileName), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkillFile(t, tmpDir, `---
name: zig-programming
description: Zig programming assistance with recipes and references
license: MIT
version: 1.2.0
---

# Zig Programming

## Instructions
Look up recipes before writing code from scratch.
`)

	skill, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "zig-programming", skill.Name)
	assert.Equal(t, "Zig programming assistance with recipes and references", skill.Description)
	assert.Equal(t, "MIT", skill.License)
	assert.Equal(t, "1.2.0", skill.Version)
	assert.Equal(t, tmpDir, skill.Directory)
	assert.Contains(t, skill.Content, "# Zig Programming")
	assert.NotContains(t, skill.Content, "name: zig-programming")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read skill file")
	})

	t.Run("missing frontmatter", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkillFile(t, tmpDir, "# Just a heading\n\nNo frontmatter here.\n")

		_, err := Load(tmpDir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing frontmatter")
	})

	t.Run("missing name", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkillFile(t, tmpDir, `---
description: A skill with no name
---

Body content.
`)

		_, err := Load(tmpDir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "skill name is required")
	})

	t.Run("missing description", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkillFile(t, tmpDir, `---
name: nameless
---

Body content.
`)

		_, err := Load(tmpDir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "skill description is required")
	})
}

func TestFindRoot(t *testing.T) {
	tmpDir := t.TempDir()
	skillDir := filepath.Join(tmpDir, "my-skill")
	writeSkillFile(t, skillDir, `---
name: my-skill
description: A skill
---

Body.
`)
	nested := filepath.Join(skillDir, "scripts", "helpers")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	t.Run("from skill dir", func(t *testing.T) {
		root, err := FindRoot(skillDir)
		require.NoError(t, err)
		assert.Equal(t, skillDir, root)
	})

	t.Run("from nested dir", func(t *testing.T) {
		root, err := FindRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, skillDir, root)
	})

	t.Run("not found", func(t *testing.T) {
		outside := t.TempDir()
		_, err := FindRoot(outside)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no SKILL.md found")
	})
}

func TestExtractBodyContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "with frontmatter",
			content:  "---\nname: test\n---\n\n# Body\n",
			expected: "# Body\n",
		},
		{
			name:     "no frontmatter",
			content:  "# Body only\n",
			expected: "# Body only\n",
		},
		{
			name:     "unterminated frontmatter",
			content:  "---\nname: test\n",
			expected: "---\nname: test\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBodyContent(tt.content))
		})
	}
}
