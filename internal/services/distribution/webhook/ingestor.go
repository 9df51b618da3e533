// Package webhook verifies inbound release notifications and applies them to
// the release cache.
//
// Verification is a hard boundary: no payload byte is parsed before the
// signature checks out. Verified payloads that are not "published" release
// events are acknowledged without any state change, because deliveries are
// at-least-once and unrecognized-but-authentic events must not error. A
// verified body that fails to parse at all is reported back to the sender
// as an invalid payload.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
)

// ErrUnauthorized indicates the request signature did not verify.
var ErrUnauthorized = apperrors.New(apperrors.CodeWebhookUnauthorized, "invalid webhook signature")

// ReleaseCache is the webhook's write port into the release cache.
type ReleaseCache interface {
	IngestPushed(ctx context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error)
}

// Result reports the outcome of one verified webhook delivery.
type Result struct {
	Applied bool
	Release domain.Release
	Message string
}

// Ingestor validates signed release notifications and writes them through
// the release cache's push path.
type Ingestor struct {
	cache  ReleaseCache
	secret string
	marker string
}

// New creates an Ingestor. An empty secret makes every delivery fail closed.
func New(cache ReleaseCache, secret, marker string) *Ingestor {
	return &Ingestor{cache: cache, secret: secret, marker: marker}
}

type payload struct {
	Action  string `json:"action"`
	Release *struct {
		TagName   string    `json:"tag_name"`
		Name      string    `json:"name"`
		HTMLURL   string    `json:"html_url"`
		CreatedAt time.Time `json:"created_at"`
		Assets    []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	} `json:"release"`
}

// Handle verifies and applies one inbound delivery.
//
// The state machine over a single request is received → verified → applied,
// or received → rejected when verification fails. Rejection happens before
// any parsing of payload semantics.
func (i *Ingestor) Handle(ctx context.Context, body []byte, claimedSignature string) (Result, error) {
	if !VerifySignature(body, claimedSignature, i.secret) {
		return Result{}, ErrUnauthorized
	}

	var event payload
	if err := json.Unmarshal(body, &event); err != nil {
		// The sender is already authenticated, so a body that does not
		// parse is their defect, not a server fault.
		return Result{}, apperrors.Wrap(apperrors.CodeWebhookPayloadInvalid, "malformed webhook payload", err)
	}

	if event.Action != "published" || event.Release == nil {
		return Result{Message: "webhook received but no action taken"}, nil
	}

	assets := make([]domain.Asset, 0, len(event.Release.Assets))
	for _, asset := range event.Release.Assets {
		assets = append(assets, domain.Asset{
			Name:               asset.Name,
			BrowserDownloadURL: asset.BrowserDownloadURL,
		})
	}
	zipAssetURL, _ := domain.MatchZipAsset(assets, i.marker)

	release, err := i.cache.IngestPushed(ctx, domain.ReleaseDescriptor{
		TagName:     event.Release.TagName,
		Name:        event.Release.Name,
		DownloadURL: event.Release.HTMLURL,
		ZipAssetURL: zipAssetURL,
		CreatedAt:   event.Release.CreatedAt,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Applied: true,
		Release: release,
		Message: fmt.Sprintf("release %s stored successfully", release.TagName),
	}, nil
}
