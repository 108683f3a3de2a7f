package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
)

// DownloadIndexURL is the upstream index of published Zig releases
const DownloadIndexURL = "https://ziglang.org/download/index.json"

const (
	releaseFetchAttempts = 3
	releaseFetchTimeout  = 30 * time.Second
)

// Release describes one entry in the upstream download index
type Release struct {
	Version  string `json:"version"`
	Date     string `json:"date"`
	IsMaster bool   `json:"isMaster,omitempty"`
}

// ReleaseClient fetches the published release index from ziglang.org
type ReleaseClient struct {
	httpClient *http.Client
	indexURL   string
}

// ReleaseOption is a function that configures a ReleaseClient
type ReleaseOption func(*ReleaseClient)

// WithHTTPClient overrides the HTTP client used for index fetches
func WithHTTPClient(client *http.Client) ReleaseOption {
	return func(c *ReleaseClient) {
		c.httpClient = client
	}
}

// WithIndexURL overrides the release index URL
func WithIndexURL(url string) ReleaseOption {
	return func(c *ReleaseClient) {
		c.indexURL = url
	}
}

// NewReleaseClient creates a client for the upstream release index
func NewReleaseClient(opts ...ReleaseOption) *ReleaseClient {
	c := &ReleaseClient{
		httpClient: &http.Client{Timeout: releaseFetchTimeout},
		indexURL:   DownloadIndexURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Releases fetches the published releases, master first followed by stable
// releases in descending version order
func (c *ReleaseClient) Releases(ctx context.Context) ([]Release, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var fetchErr error
			body, fetchErr = c.fetchIndex(ctx)
			return fetchErr
		},
		retry.Attempts(releaseFetchAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying release index fetch")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch release index")
	}

	var index map[string]struct {
		Version string `json:"version"`
		Date    string `json:"date"`
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, errors.Wrap(err, "failed to parse release index")
	}

	releases := make([]Release, 0, len(index))
	for name, entry := range index {
		if name == "master" {
			releases = append(releases, Release{
				Version:  entry.Version,
				Date:     entry.Date,
				IsMaster: true,
			})
			continue
		}
		releases = append(releases, Release{Version: name, Date: entry.Date})
	}

	sort.Slice(releases, func(i, j int) bool {
		if releases[i].IsMaster != releases[j].IsMaster {
			return releases[i].IsMaster
		}
		return compareVersions(releases[i].Version, releases[j].Version) > 0
	})

	return releases, nil
}

// LatestStable returns the newest non-master release
func (c *ReleaseClient) LatestStable(ctx context.Context) (Release, error) {
	releases, err := c.Releases(ctx)
	if err != nil {
		return Release{}, err
	}

	for _, release := range releases {
		if !release.IsMaster {
			return release, nil
		}
	}
	return Release{}, errors.New("no stable release found in index")
}

func (c *ReleaseClient) fetchIndex(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.indexURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch index")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, c.indexURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read index body")
	}
	return body, nil
}

// Newer reports whether version a is strictly newer than version b
func Newer(a, b string) bool {
	return compareVersions(a, b) > 0
}

// compareVersions compares two dotted version strings numerically,
// returning a positive value when a is newer than b. Dev suffixes
// compare older than the corresponding release
func compareVersions(a, b string) int {
	aParts := versionParts(a)
	bParts := versionParts(b)

	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			return aParts[i] - bParts[i]
		}
	}
	if len(aParts) != len(bParts) {
		return len(aParts) - len(bParts)
	}

	// Numeric parts equal, a plain release beats a dev snapshot
	aDev := strings.ContainsAny(a, "-+")
	bDev := strings.ContainsAny(b, "-+")
	switch {
	case aDev && !bDev:
		return -1
	case !aDev && bDev:
		return 1
	}
	return strings.Compare(a, b)
}

func versionParts(version string) []int {
	version = Normalize(version)
	if idx := strings.IndexAny(version, "-+"); idx >= 0 {
		version = version[:idx]
	}

	fields := strings.Split(version, ".")
	parts := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}

// FormatRelease renders a release for display
func FormatRelease(r Release) string {
	name := r.Version
	if r.IsMaster {
		name = fmt.Sprintf("master (%s)", r.Version)
	}
	if r.Date == "" {
		return name
	}
	return fmt.Sprintf("%s  %s", name, r.Date)
}
