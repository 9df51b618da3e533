// Package github provides a minimal client for the GitHub releases API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
)

const defaultBaseURL = "https://api.github.com"

// Config holds the upstream repository coordinates and credentials.
type Config struct {
	Owner string
	Repo  string
	Token string

	// BaseURL overrides the GitHub API base URL, primarily for tests.
	BaseURL string
}

// Client fetches release metadata for one configured repository.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a GitHub client. A nil httpClient falls back to a client with
// a conservative timeout; calls either complete or fail fast, they are never
// retried here.
func New(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = defaultBaseURL
	}
	return &Client{config: config, httpClient: httpClient}
}

type releasePayload struct {
	TagName   string    `json:"tag_name"`
	Name      string    `json:"name"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	Assets    []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// LatestRelease returns the latest published release of the configured
// repository. Non-success statuses and transport failures surface as
// upstream errors; the caller decides whether a later retry makes sense.
func (c *Client) LatestRelease(ctx context.Context) (domain.UpstreamRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.Owner, c.config.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.UpstreamRelease{}, fmt.Errorf("build latest release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "token "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.UpstreamRelease{}, apperrors.WrapWithMetadata(
			apperrors.CodeUpstreamUnavailable,
			"fetch latest release",
			map[string]string{"owner": c.config.Owner, "repo": c.config.Repo},
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.UpstreamRelease{}, apperrors.WithMetadata(
			apperrors.CodeUpstreamUnavailable,
			fmt.Sprintf("github api error: %s", resp.Status),
			map[string]string{"owner": c.config.Owner, "repo": c.config.Repo},
		)
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.UpstreamRelease{}, apperrors.Wrap(
			apperrors.CodeUpstreamUnavailable,
			"decode latest release response",
			err,
		)
	}

	release := domain.UpstreamRelease{
		TagName:   payload.TagName,
		Name:      payload.Name,
		HTMLURL:   payload.HTMLURL,
		CreatedAt: payload.CreatedAt.UTC(),
	}
	for _, asset := range payload.Assets {
		release.Assets = append(release.Assets, domain.Asset{
			Name:               asset.Name,
			BrowserDownloadURL: asset.BrowserDownloadURL,
		})
	}
	return release, nil
}
