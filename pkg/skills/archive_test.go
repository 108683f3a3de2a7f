package skills

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundleFile(t *testing.T, skillDir, rel, content string) {
	t.Helper()
	path := filepath.Join(skillDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupBundle(t *testing.T) string {
	t.Helper()
	skillDir := filepath.Join(t.TempDir(), "bundle-dir")
	writeBundleFile(t, skillDir, "SKILL.md", `---
name: zig-programming
description: Zig programming assistance
---

# Zig Programming

Body content for the bundle, long enough to look like a real skill file.
`)
	writeBundleFile(t, skillDir, "scripts/helper.sh", "#!/bin/sh\n")
	writeBundleFile(t, skillDir, "references/core-language.md", "# Core Language\n")
	writeBundleFile(t, skillDir, "sub/keep.txt", "kept\n")
	return skillDir
}

func archiveNames(t *testing.T, zipPath string) []string {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPackage(t *testing.T) {
	skillDir := setupBundle(t)
	outputDir := t.TempDir()

	packager, err := NewPackager(skillDir, WithOutputDir(outputDir))
	require.NoError(t, err)

	zipPath, err := packager.Package(context.Background())
	require.NoError(t, err)

	// Archive is named after the frontmatter name, entries after the
	// directory name
	assert.Equal(t, filepath.Join(outputDir, "zig-programming.zip"), zipPath)
	assert.ElementsMatch(t, []string{
		"bundle-dir/SKILL.md",
		"bundle-dir/scripts/helper.sh",
		"bundle-dir/references/core-language.md",
		"bundle-dir/sub/keep.txt",
	}, archiveNames(t, zipPath))
}

func TestPackageExcludes(t *testing.T) {
	skillDir := setupBundle(t)
	writeBundleFile(t, skillDir, ".hidden", "secret\n")
	writeBundleFile(t, skillDir, ".git/config", "[core]\n")
	writeBundleFile(t, skillDir, "zig-cache/junk", "cache\n")
	writeBundleFile(t, skillDir, "sub/zig-out/bin/app", "binary\n")
	writeBundleFile(t, skillDir, "notes.zip", "old archive\n")
	writeBundleFile(t, skillDir, "scripts/debug.log", "log line\n")

	packager, err := NewPackager(skillDir,
		WithOutputDir(t.TempDir()),
		WithExcludePatterns("*.log"),
	)
	require.NoError(t, err)

	zipPath, err := packager.Package(context.Background())
	require.NoError(t, err)

	names := archiveNames(t, zipPath)
	assert.ElementsMatch(t, []string{
		"bundle-dir/SKILL.md",
		"bundle-dir/scripts/helper.sh",
		"bundle-dir/references/core-language.md",
		"bundle-dir/sub/keep.txt",
	}, names)
}

func TestPackageIntoSkillDir(t *testing.T) {
	skillDir := setupBundle(t)

	packager, err := NewPackager(skillDir, WithOutputDir(skillDir))
	require.NoError(t, err)

	zipPath, err := packager.Package(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(skillDir, "zig-programming.zip"), zipPath)

	// The archive does not contain itself
	for _, name := range archiveNames(t, zipPath) {
		assert.NotContains(t, name, ".zip")
	}
}

func TestPackageFallsBackToDirectoryName(t *testing.T) {
	skillDir := filepath.Join(t.TempDir(), "unnamed-skill")
	writeBundleFile(t, skillDir, "README.md", "no SKILL.md here\n")

	packager, err := NewPackager(skillDir, WithOutputDir(t.TempDir()))
	require.NoError(t, err)

	zipPath, err := packager.Package(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unnamed-skill.zip", filepath.Base(zipPath))
}

func TestPackageMissingDirectory(t *testing.T) {
	packager, err := NewPackager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	_, err = packager.Package(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill directory not found")
}

func TestPackagerOptions(t *testing.T) {
	t.Run("empty output dir", func(t *testing.T) {
		_, err := NewPackager(t.TempDir(), WithOutputDir(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output directory cannot be empty")
	})

	t.Run("invalid exclude pattern", func(t *testing.T) {
		_, err := NewPackager(t.TempDir(), WithExcludePatterns("["))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid exclude pattern")
	})
}
