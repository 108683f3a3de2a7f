package toolchain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releaseIndexFixture = `{
  "master": {
    "version": "0.16.0-dev.123+abcdef",
    "date": "2025-08-01",
    "x86_64-linux": {"tarball": "https://example.com/master.tar.xz"}
  },
  "0.15.2": {
    "date": "2025-07-10",
    "x86_64-linux": {"tarball": "https://example.com/0.15.2.tar.xz"}
  },
  "0.14.1": {
    "date": "2025-02-01",
    "x86_64-linux": {"tarball": "https://example.com/0.14.1.tar.xz"}
  },
  "0.13.0": {
    "date": "2024-06-07"
  }
}`

func newIndexServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReleases(t *testing.T) {
	server := newIndexServer(t, http.StatusOK, releaseIndexFixture)
	client := NewReleaseClient(WithIndexURL(server.URL))

	releases, err := client.Releases(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 4)

	// Master sorts first, stable releases follow newest first
	assert.True(t, releases[0].IsMaster)
	assert.Equal(t, "0.16.0-dev.123+abcdef", releases[0].Version)
	assert.Equal(t, "0.15.2", releases[1].Version)
	assert.Equal(t, "0.14.1", releases[2].Version)
	assert.Equal(t, "0.13.0", releases[3].Version)
	assert.Equal(t, "2025-07-10", releases[1].Date)
}

func TestLatestStable(t *testing.T) {
	server := newIndexServer(t, http.StatusOK, releaseIndexFixture)
	client := NewReleaseClient(WithIndexURL(server.URL))

	release, err := client.LatestStable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.15.2", release.Version)
	assert.False(t, release.IsMaster)
}

func TestReleasesServerError(t *testing.T) {
	server := newIndexServer(t, http.StatusInternalServerError, "boom")
	client := NewReleaseClient(WithIndexURL(server.URL))

	_, err := client.Releases(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch release index")
}

func TestReleasesInvalidJSON(t *testing.T) {
	server := newIndexServer(t, http.StatusOK, "not json")
	client := NewReleaseClient(WithIndexURL(server.URL))

	_, err := client.Releases(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse release index")
}

func TestFormatRelease(t *testing.T) {
	assert.Equal(t, "0.15.2  2025-07-10", FormatRelease(Release{Version: "0.15.2", Date: "2025-07-10"}))
	assert.Equal(t, "master (0.16.0-dev.1+abc)  2025-08-01",
		FormatRelease(Release{Version: "0.16.0-dev.1+abc", Date: "2025-08-01", IsMaster: true}))
	assert.Equal(t, "0.13.0", FormatRelease(Release{Version: "0.13.0"}))
}
