// Package releasecache mediates between the release store and the upstream
// release provider.
//
// Reads are served from the store whenever possible; the upstream provider
// is only consulted when the store is empty (cold start). Steady-state
// freshness relies on the webhook push path writing through IngestPushed.
// There is no TTL and no automatic re-sync: a lost webhook delivery leaves
// the cache stale until the store empties or an operator resyncs.
package releasecache

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
	"github.com/louisbranch/takehome/internal/services/distribution/storage"
)

// Provider fetches the latest published release from the upstream source.
type Provider interface {
	LatestRelease(ctx context.Context) (domain.UpstreamRelease, error)
}

// Cache answers "what is the latest release" from the store with upstream
// fallback and tag-level de-duplication.
type Cache struct {
	store    storage.ReleaseStore
	provider Provider
	marker   string
}

// New creates a Cache. The marker is the substring a zip asset name must
// contain to be served as the challenge artifact.
func New(store storage.ReleaseStore, provider Provider, marker string) *Cache {
	return &Cache{store: store, provider: provider, marker: marker}
}

// LatestCached returns the most recently created stored release. An empty
// store is a normal outcome reported through ok=false, not an error.
func (c *Cache) LatestCached(ctx context.Context) (domain.Release, bool, error) {
	release, err := c.store.LatestRelease(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Release{}, false, nil
		}
		return domain.Release{}, false, apperrors.Wrap(apperrors.CodePersistenceFailure, "read latest cached release", err)
	}
	return release, true, nil
}

// FetchUpstream asks the provider for the latest published release and
// applies the zip asset matching rule. A release without a matching asset is
// still returned; its ZipAssetURL is just empty.
func (c *Cache) FetchUpstream(ctx context.Context) (domain.ReleaseDescriptor, error) {
	upstream, err := c.provider.LatestRelease(ctx)
	if err != nil {
		return domain.ReleaseDescriptor{}, err
	}
	zipAssetURL, _ := domain.MatchZipAsset(upstream.Assets, c.marker)
	return domain.ReleaseDescriptor{
		TagName:     upstream.TagName,
		Name:        upstream.Name,
		DownloadURL: upstream.HTMLURL,
		ZipAssetURL: zipAssetURL,
		CreatedAt:   upstream.CreatedAt,
	}, nil
}

// SyncLatest fetches the latest upstream release and stores it unless a row
// with the same tag already exists, in which case the stored row is returned
// unchanged.
func (c *Cache) SyncLatest(ctx context.Context) (domain.Release, error) {
	descriptor, err := c.FetchUpstream(ctx)
	if err != nil {
		return domain.Release{}, err
	}
	return c.ingest(ctx, descriptor)
}

// LatestWithFallback is the primary read path: the cached release when one
// exists, otherwise a sync from upstream. It fails only when the cache is
// empty and upstream is unavailable too.
func (c *Cache) LatestWithFallback(ctx context.Context) (domain.Release, error) {
	release, ok, err := c.LatestCached(ctx)
	if err != nil {
		return domain.Release{}, err
	}
	if ok {
		return release, nil
	}
	return c.SyncLatest(ctx)
}

// IngestPushed stores a release descriptor delivered by the verified webhook
// path, applying the same tag de-duplication as SyncLatest but skipping the
// upstream call.
func (c *Cache) IngestPushed(ctx context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error) {
	return c.ingest(ctx, descriptor)
}

func (c *Cache) ingest(ctx context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error) {
	existing, err := c.store.GetReleaseByTag(ctx, descriptor.TagName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Release{}, apperrors.WrapWithMetadata(
			apperrors.CodePersistenceFailure,
			"read release by tag",
			map[string]string{"tag_name": descriptor.TagName},
			err,
		)
	}

	release, err := c.store.InsertRelease(ctx, descriptor)
	if err != nil {
		// A concurrent ingest of the same tag surfaces here as a uniqueness
		// violation; it is reported, not retried.
		return domain.Release{}, apperrors.WrapWithMetadata(
			apperrors.CodePersistenceFailure,
			"insert release",
			map[string]string{"tag_name": descriptor.TagName},
			err,
		)
	}
	return release, nil
}
