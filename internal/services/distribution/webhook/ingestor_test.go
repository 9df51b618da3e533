package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
)

type fakeCache struct {
	ingested  []domain.ReleaseDescriptor
	ingestErr error
}

func (f *fakeCache) IngestPushed(_ context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error) {
	if f.ingestErr != nil {
		return domain.Release{}, f.ingestErr
	}
	f.ingested = append(f.ingested, descriptor)
	return domain.Release{
		ID:          "rel-1",
		TagName:     descriptor.TagName,
		Name:        descriptor.Name,
		DownloadURL: descriptor.DownloadURL,
		ZipAssetURL: descriptor.ZipAssetURL,
		CreatedAt:   descriptor.CreatedAt,
	}, nil
}

const publishedBody = `{
	"action": "published",
	"release": {
		"tag_name": "v1.0",
		"name": "Challenge 1.0",
		"html_url": "https://github.test/releases/v1.0",
		"created_at": "2026-01-10T00:00:00Z",
		"assets": [
			{"name": "sdk-challenge-1.0.zip", "browser_download_url": "https://x/1.0.zip"}
		]
	}
}`

func TestHandleAppliesPublishedRelease(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	ingestor := New(cache, "shared-secret", "sdk-challenge")
	body := []byte(publishedBody)

	result, err := ingestor.Handle(context.Background(), body, Sign(body, "shared-secret"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Applied {
		t.Fatal("expected release to be applied")
	}
	if result.Release.TagName != "v1.0" {
		t.Fatalf("tag = %q, want v1.0", result.Release.TagName)
	}
	if len(cache.ingested) != 1 {
		t.Fatalf("ingested = %d, want 1", len(cache.ingested))
	}
	descriptor := cache.ingested[0]
	if descriptor.ZipAssetURL != "https://x/1.0.zip" {
		t.Fatalf("zip url = %q, want https://x/1.0.zip", descriptor.ZipAssetURL)
	}
	if !descriptor.CreatedAt.Equal(time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at = %v", descriptor.CreatedAt)
	}
}

func TestHandleRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	ingestor := New(cache, "shared-secret", "sdk-challenge")
	body := []byte(publishedBody)

	_, err := ingestor.Handle(context.Background(), body, Sign(body, "wrong-secret"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(cache.ingested) != 0 {
		t.Fatal("release store must be unchanged after rejection")
	}
}

func TestHandleRejectsMissingSignature(t *testing.T) {
	t.Parallel()

	ingestor := New(&fakeCache{}, "shared-secret", "sdk-challenge")
	_, err := ingestor.Handle(context.Background(), []byte(publishedBody), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHandleFailsClosedWithoutSecret(t *testing.T) {
	t.Parallel()

	ingestor := New(&fakeCache{}, "", "sdk-challenge")
	body := []byte(publishedBody)
	_, err := ingestor.Handle(context.Background(), body, Sign(body, ""))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHandleAcknowledgesOtherVerifiedEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "non-published action", body: `{"action": "created", "release": {"tag_name": "v1.0"}}`},
		{name: "published without release", body: `{"action": "published"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cache := &fakeCache{}
			ingestor := New(cache, "shared-secret", "sdk-challenge")
			body := []byte(tc.body)

			result, err := ingestor.Handle(context.Background(), body, Sign(body, "shared-secret"))
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if result.Applied {
				t.Fatal("expected no state change")
			}
			if len(cache.ingested) != 0 {
				t.Fatal("expected no ingestion")
			}
		})
	}
}

func TestHandleRejectsMalformedVerifiedPayload(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	ingestor := New(cache, "shared-secret", "sdk-challenge")
	body := []byte(`{"action": "published", "release":`)

	_, err := ingestor.Handle(context.Background(), body, Sign(body, "shared-secret"))
	if apperrors.CodeOf(err) != apperrors.CodeWebhookPayloadInvalid {
		t.Fatalf("code = %q, want %q", apperrors.CodeOf(err), apperrors.CodeWebhookPayloadInvalid)
	}
	if len(cache.ingested) != 0 {
		t.Fatal("malformed payload must not reach the cache")
	}
}

func TestHandlePropagatesCacheFailure(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{ingestErr: apperrors.New(apperrors.CodePersistenceFailure, "insert release")}
	ingestor := New(cache, "shared-secret", "sdk-challenge")
	body := []byte(publishedBody)

	_, err := ingestor.Handle(context.Background(), body, Sign(body, "shared-secret"))
	if apperrors.CodeOf(err) != apperrors.CodePersistenceFailure {
		t.Fatalf("code = %q, want %q", apperrors.CodeOf(err), apperrors.CodePersistenceFailure)
	}
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"action":"published"}`)
	good := Sign(body, "secret")

	if !VerifySignature(body, good, "secret") {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(body, good, "other-secret") {
		t.Fatal("expected signature under different secret to fail")
	}
	if VerifySignature([]byte(`{"action":"created"}`), good, "secret") {
		t.Fatal("expected signature over different body to fail")
	}
	if VerifySignature(body, "", "secret") {
		t.Fatal("expected missing header to fail closed")
	}
	if VerifySignature(body, good, "") {
		t.Fatal("expected missing secret to fail closed")
	}
}
