package acceptance

import (
	"os"
	"testing"
)

const binaryPath = "../../bin/zigskill"

// TestMain runs setup and teardown for acceptance tests
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// requireBinary skips the test when the zigskill binary has not been built
func requireBinary(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(binaryPath); err != nil {
		t.Skipf("zigskill binary not found at %s, build it with 'go build -o bin/zigskill ./cmd/zigskill' first", binaryPath)
	}
}
