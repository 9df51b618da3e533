package domain

import (
	"strings"
	"time"
)

// Release represents a locally cached upstream release.
type Release struct {
	ID          string
	TagName     string
	Name        string
	DownloadURL string // human-facing release page URL
	ZipAssetURL string // direct artifact URL; empty when no asset matched
	CreatedAt   time.Time
}

// Asset is one downloadable file attached to an upstream release.
type Asset struct {
	Name               string
	BrowserDownloadURL string
}

// ReleaseDescriptor describes an upstream release after asset matching,
// ready to be stored. It arrives either from the provider API (pull path)
// or from a verified webhook payload (push path).
type ReleaseDescriptor struct {
	TagName     string
	Name        string
	DownloadURL string
	ZipAssetURL string
	CreatedAt   time.Time
}

// MatchZipAsset returns the download URL of the first asset whose name ends
// in ".zip" and contains the marker substring. Absence of a match is a
// normal outcome, not an error: the release is still cacheable, it just has
// nothing to serve.
func MatchZipAsset(assets []Asset, marker string) (string, bool) {
	for _, asset := range assets {
		if strings.HasSuffix(asset.Name, ".zip") && strings.Contains(asset.Name, marker) {
			return asset.BrowserDownloadURL, true
		}
	}
	return "", false
}

// UpstreamRelease is the provider's view of the latest published release,
// before asset matching.
type UpstreamRelease struct {
	TagName   string
	Name      string
	HTMLURL   string
	CreatedAt time.Time
	Assets    []Asset
}
