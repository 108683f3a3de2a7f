package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noZig(_ context.Context) (string, error) {
	return "", errors.New("zig not installed")
}

func newTestDetector(t *testing.T, dir string) *Detector {
	t.Helper()
	detector, err := NewDetector(
		WithProjectDir(dir),
		WithZigCommand(noZig),
	)
	require.NoError(t, err)
	return detector
}

func TestDetectFromCommand(t *testing.T) {
	detector, err := NewDetector(
		WithProjectDir(t.TempDir()),
		WithZigCommand(func(_ context.Context) (string, error) {
			return "0.15.2\n", nil
		}),
	)
	require.NoError(t, err)

	result := detector.Detect(context.Background())

	assert.Equal(t, "0.15.2", result.Version)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, "zig_command", result.Source)
	assert.Empty(t, result.Note)
}

func TestDetectFromCommandDevSnapshot(t *testing.T) {
	detector, err := NewDetector(
		WithProjectDir(t.TempDir()),
		WithZigCommand(func(_ context.Context) (string, error) {
			return "0.16.0-dev.123+abcdef\n", nil
		}),
	)
	require.NoError(t, err)

	result := detector.Detect(context.Background())

	assert.Equal(t, "0.16.0-dev.123+abcdef", result.Version)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, "zig_command", result.Source)
}

func TestDetectFromZon(t *testing.T) {
	tmpDir := t.TempDir()
	zonContent := `.{
    .name = "myproject",
    .version = "0.1.0",
    .minimum_zig_version = "0.13.0",
    .dependencies = .{},
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig.zon"), []byte(zonContent), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.13.0", result.Version)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, "build.zig.zon", result.Source)
	assert.Contains(t, result.Note, "minimum version")
}

func TestDetectFromZonWithoutMinimumVersion(t *testing.T) {
	tmpDir := t.TempDir()
	zonContent := `.{
    .name = "myproject",
    .version = "0.1.0",
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig.zon"), []byte(zonContent), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	// Falls through to the low-confidence default
	assert.Equal(t, DefaultVersion, result.Version)
	assert.Equal(t, "default", result.Source)
}

func TestDetectFromModernBuildScript(t *testing.T) {
	tmpDir := t.TempDir()
	buildContent := `const std = @import("std");

pub fn build(b: *std.Build) void {
    const exe = b.addExecutable(.{
        .name = "myapp",
        .root_source_file = b.path("src/main.zig"),
    });
    b.installArtifact(exe);
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig"), []byte(buildContent), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.15.2", result.Version)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
	assert.Equal(t, "build.zig_modern_api", result.Source)
}

func TestDetectFromLegacyBuildScript(t *testing.T) {
	tmpDir := t.TempDir()
	buildContent := `const Builder = @import("std").build.Builder;

pub fn build(b: *std.build.Builder) void {
    const exe = b.addExecutable("myapp", "src/main.zig");
    exe.install();
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig"), []byte(buildContent), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.10.1", result.Version)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
	assert.Equal(t, "build.zig_legacy_api", result.Source)
}

func TestDetectZonTakesPrecedenceOverBuildScript(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig.zon"),
		[]byte(`.{ .minimum_zig_version = "0.14.1" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build.zig"),
		[]byte(`pub fn build(b: *std.Build) void {}`), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.14.1", result.Version)
	assert.Equal(t, "build.zig.zon", result.Source)
}

func TestDetectFromSourceModernForLoop(t *testing.T) {
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	source := `pub fn main() void {
    const items = [_]u8{ 1, 2, 3 };
    for (items, 0..) |item, i| {
        _ = item;
        _ = i;
    }
}`
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.zig"), []byte(source), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.13.0", result.Version)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
	assert.Equal(t, "source_syntax_for_loop", result.Source)
}

func TestDetectFromSourceAsyncAwait(t *testing.T) {
	tmpDir := t.TempDir()

	source := `pub fn main() void {
    var frame = async doWork();
    const result = await frame;
    _ = result;
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "main.zig"), []byte(source), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.10.1", result.Version)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
	assert.Equal(t, "source_syntax_async", result.Source)
}

func TestDetectModernForLoopWinsOverAsync(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "old.zig"),
		[]byte(`var frame = async doWork();`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "new.zig"),
		[]byte(`for (items, 0..) |item, i| {}`), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, "0.13.0", result.Version)
	assert.Equal(t, "source_syntax_for_loop", result.Source)
}

func TestDetectDefault(t *testing.T) {
	result := newTestDetector(t, t.TempDir()).Detect(context.Background())

	assert.Equal(t, DefaultVersion, result.Version)
	assert.Equal(t, ConfidenceLow, result.Confidence)
	assert.Equal(t, "default", result.Source)
	assert.Contains(t, result.Note, "current stable")
}

func TestDetectPlainSourceFallsThrough(t *testing.T) {
	tmpDir := t.TempDir()
	source := `pub fn main() void {
    const x: u8 = 42;
    _ = x;
}`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "main.zig"), []byte(source), 0o644))

	result := newTestDetector(t, tmpDir).Detect(context.Background())

	assert.Equal(t, DefaultVersion, result.Version)
	assert.Equal(t, "default", result.Source)
}

func TestNewDetectorOptionValidation(t *testing.T) {
	_, err := NewDetector(WithProjectDir(""))
	assert.Error(t, err)

	_, err = NewDetector(WithCommandTimeout(0))
	assert.Error(t, err)

	_, err = NewDetector(WithZigCommand(nil))
	assert.Error(t, err)
}
