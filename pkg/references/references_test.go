package references

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

func newTestRoot(t *testing.T, refDirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range refDirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "references", dir), 0o755))
	}
	return root
}

func TestResolveExactMatch(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.15.2")

	assert.Equal(t, "0.15.2", resolution.Version)
	assert.Equal(t, "0.15.2", resolution.ReferenceVersion)
	assert.Equal(t, "references/v0.15.2", resolution.Path)
	assert.Equal(t, filepath.Join(root, "references/v0.15.2"), resolution.AbsolutePath)
	assert.True(t, resolution.Exists)
	assert.False(t, resolution.Fallback)
	assert.Empty(t, resolution.Warnings)
}

func TestResolveStripsVPrefix(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("v0.15.2")

	assert.Equal(t, "0.15.2", resolution.Version)
	assert.False(t, resolution.Fallback)
}

func TestResolveFallback(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.14.1")

	assert.Equal(t, "0.14.1", resolution.Version)
	assert.Equal(t, "0.15.2", resolution.ReferenceVersion)
	assert.Equal(t, "references/v0.15.2", resolution.Path)
	assert.True(t, resolution.Exists)
	assert.True(t, resolution.Fallback)
	assert.Equal(t, "No references for 0.14.1, using 0.15.2", resolution.FallbackReason)
	assert.Contains(t, resolution.Warnings, resolution.FallbackReason)
}

func TestResolveForLoopSeriesWarning(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	for _, version := range []string{"0.12.0", "0.12.1", "0.11.0"} {
		resolution := resolver.Resolve(version)
		assert.True(t, resolution.Fallback, version)
		assert.Contains(t, resolution.Warnings,
			"Note: For loop syntax differs from 0.13+. See references/version-differences.md", version)
	}
}

func TestResolveAsyncSeriesWarnings(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.10.1")

	assert.True(t, resolution.Fallback)
	assert.Contains(t, resolution.Warnings,
		"Warning: Major differences (async/await removed in 0.11+, build API changed)")
	assert.Contains(t, resolution.Warnings,
		"Strongly recommend upgrading to 0.15.2. See references/version-differences.md")
}

func TestResolveMasterUsesLatest(t *testing.T) {
	root := newTestRoot(t, "latest")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	for _, version := range []string{"master", "dev"} {
		resolution := resolver.Resolve(version)

		assert.Equal(t, LatestDirName, resolution.ReferenceVersion, version)
		assert.Equal(t, "references/latest", resolution.Path, version)
		assert.True(t, resolution.Exists, version)
		assert.True(t, resolution.Fallback, version)
	}
}

func TestResolveDevSnapshotUsesLatest(t *testing.T) {
	root := newTestRoot(t, "latest")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.16.0-dev.123+abcdef")

	assert.Equal(t, LatestDirName, resolution.ReferenceVersion)
	assert.Equal(t, "references/latest", resolution.Path)
	assert.True(t, resolution.Exists)
	assert.True(t, resolution.Fallback)
	assert.Equal(t, "No references for 0.16.0-dev.123+abcdef, using latest", resolution.FallbackReason)
}

func TestResolveUnknownVersion(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("1.0.0")

	assert.Equal(t, "0.15.2", resolution.ReferenceVersion)
	assert.True(t, resolution.Fallback)
	assert.Equal(t, "Unknown version 1.0.0, defaulting to 0.15.2", resolution.FallbackReason)
	assert.Contains(t, resolution.Warnings, "Consider upgrading to a supported version")
}

func TestResolveMissingDirectory(t *testing.T) {
	root := t.TempDir()
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.15.2")

	assert.False(t, resolution.Exists)
	assert.Contains(t, resolution.Warnings, "Warning: Reference directory references/v0.15.2 does not exist!")
	assert.Contains(t, resolution.Warnings, "Run 'zigskill docs consolidate' to generate references for this version")
}

func TestResolveFileIsNotDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "references"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "references", "v0.15.2"), []byte("not a dir"), 0o644))

	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.15.2")
	assert.False(t, resolution.Exists)
}

func TestResolveDetection(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	detection := toolchain.Detection{
		Version:    "0.13.0",
		Confidence: toolchain.ConfidenceMedium,
		Source:     "source_syntax_for_loop",
	}
	resolution := resolver.ResolveDetection(detection)

	assert.Equal(t, "0.13.0", resolution.Version)
	assert.Equal(t, "0.15.2", resolution.ReferenceVersion)
	assert.Equal(t, "medium", resolution.Confidence)
	assert.Equal(t, "source_syntax_for_loop", resolution.Source)
}

func TestResolveDetectionExplicit(t *testing.T) {
	root := newTestRoot(t, "v0.15.2")
	resolver, err := NewResolver(root)
	require.NoError(t, err)

	resolution := resolver.ResolveDetection(toolchain.Detection{
		Version:    "0.15.2",
		Confidence: toolchain.ConfidenceExplicit,
		Source:     "command_line",
	})

	assert.Equal(t, "explicit", resolution.Confidence)
	assert.Equal(t, "command_line", resolution.Source)
	assert.False(t, resolution.Fallback)
}

func TestResolveCustomAvailableVersions(t *testing.T) {
	root := newTestRoot(t, "v0.13.0")
	resolver, err := NewResolver(root, WithAvailableVersions("0.13.0"))
	require.NoError(t, err)

	resolution := resolver.Resolve("0.13.0")

	assert.False(t, resolution.Fallback)
	assert.Equal(t, "references/v0.13.0", resolution.Path)
	assert.True(t, resolution.Exists)
}

func TestResolveCustomFallbacks(t *testing.T) {
	root := newTestRoot(t, "v0.13.0")
	resolver, err := NewResolver(root,
		WithAvailableVersions("0.13.0"),
		WithFallbacks(map[string]string{"0.8.1": "0.13.0"}),
	)
	require.NoError(t, err)

	resolution := resolver.Resolve("0.8.1")

	assert.Equal(t, "0.13.0", resolution.ReferenceVersion)
	assert.Contains(t, resolution.Warnings, "Warning: Very old version. References may not be applicable.")
}

func TestNewResolverValidation(t *testing.T) {
	_, err := NewResolver("")
	assert.Error(t, err)

	_, err = NewResolver(t.TempDir(), WithAvailableVersions())
	assert.Error(t, err)

	_, err = NewResolver(t.TempDir(), WithFallbacks(nil))
	assert.Error(t, err)
}
