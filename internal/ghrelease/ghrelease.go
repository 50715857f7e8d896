// Package ghrelease implements the Update Poller's two external
// collaborators: an HTTP Fetcher for the GitHub Releases API, and a
// CacheStore persisting the last decoded release per repository.
//
// Grounded on the original TrollVNC GitHubReleaseUpdater.h for the
// Release/Strategy shapes, and on IntuitionEngine's file_io.go for the
// "os.MkdirAll then os.WriteFile with explicit perms" disk-write style,
// adapted here from ROM/tape images to a release cache blob. Disk and
// transport errors are wrapped with github.com/pkg/errors (the retrieval
// pack's one general-purpose error-wrapping library) so errors.Cause can
// recover the underlying os/http error for the poller's retry
// classification.
package ghrelease

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Release is the subset of a GitHub release we care about.
type Release struct {
	TagName       string `json:"tag_name"`
	Name          string `json:"name"`
	Body          string `json:"body"`
	HTMLURL       string `json:"html_url"`
	PublishedAt   string `json:"published_at"`
	Prerelease    bool   `json:"prerelease"`
	VersionString string `json:"-"`
}

// NormalizedVersion strips an optional leading "v" from TagName.
func (r Release) NormalizedVersion() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Fetcher performs the GitHub Releases HTTP call.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher constructs a Fetcher using http.DefaultClient if client is nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client}
}

// FetchLatest performs GET /repos/{repo}/releases/latest, or GET
// /repos/{repo}/releases when includePrereleases is requested, in which case
// the first entry of the list is returned whether or not it is a
// prerelease. token, if non-empty, is sent
// as a Bearer Authorization header. ctx governs the HTTP round trip, per
// the ephemeral-worker "context.Context cancellation for HTTP and file I/O"
// concurrency model.
func (f *Fetcher) FetchLatest(ctx context.Context, repoFullName, token string, includePrereleases bool) (*Release, int, error) {
	url := "https://api.github.com/repos/" + repoFullName + "/releases/latest"
	if includePrereleases {
		url = "https://api.github.com/repos/" + repoFullName + "/releases"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "ghrelease: build request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "ghrelease: transport failure")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "ghrelease: read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, errors.Errorf("ghrelease: unexpected status %d", resp.StatusCode)
	}

	if includePrereleases {
		var releases []Release
		if err := json.Unmarshal(body, &releases); err != nil {
			return nil, resp.StatusCode, errors.Wrap(err, "ghrelease: decode releases list")
		}
		if len(releases) == 0 {
			return nil, resp.StatusCode, errors.New("ghrelease: no releases")
		}
		rel := releases[0]
		rel.VersionString = rel.NormalizedVersion()
		return &rel, resp.StatusCode, nil
	}

	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "ghrelease: decode release")
	}
	rel.VersionString = rel.NormalizedVersion()
	return &rel, resp.StatusCode, nil
}

// CacheStore persists one JSON file per repository under dir.
type CacheStore struct {
	Dir string
}

// NewCacheStore constructs a CacheStore rooted at dir.
func NewCacheStore(dir string) *CacheStore {
	return &CacheStore{Dir: dir}
}

func (c *CacheStore) path(repoFullName string) string {
	safe := strings.ReplaceAll(repoFullName, "/", "_")
	return filepath.Join(c.Dir, safe+".json")
}

// Load returns the cached release for repoFullName, or (nil, nil) if no
// cache file exists. VersionString is not stored in the file; Load derives
// it from TagName.
func (c *CacheStore) Load(repoFullName string) (*Release, error) {
	data, err := os.ReadFile(c.path(repoFullName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "ghrelease: read cache")
	}
	var rel Release
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, errors.Wrap(err, "ghrelease: decode cache")
	}
	rel.VersionString = rel.NormalizedVersion()
	return &rel, nil
}

// Save writes rel as the cache for repoFullName, creating the directory if
// needed.
func (c *CacheStore) Save(repoFullName string, rel *Release) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return errors.Wrap(err, "ghrelease: mkdir cache dir")
	}
	data, err := json.MarshalIndent(rel, "", " ")
	if err != nil {
		return errors.Wrap(err, "ghrelease: encode cache")
	}
	if err := os.WriteFile(c.path(repoFullName), data, 0644); err != nil {
		return errors.Wrap(err, "ghrelease: write cache")
	}
	return nil
}
