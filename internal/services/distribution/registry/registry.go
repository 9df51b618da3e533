// Package registry owns candidate records and their status lifecycle.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
	"github.com/louisbranch/takehome/internal/services/distribution/storage"
	"github.com/louisbranch/takehome/internal/token"
)

// Registry exposes candidate creation, lookup and download-state mutation
// over a CandidateStore.
type Registry struct {
	store          storage.CandidateStore
	now            func() time.Time
	tokenGenerator func() (string, error)
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the registry clock.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithTokenGenerator overrides the download token source.
func WithTokenGenerator(generate func() (string, error)) Option {
	return func(r *Registry) { r.tokenGenerator = generate }
}

// New creates a Registry backed by the given store.
func New(store storage.CandidateStore, opts ...Option) *Registry {
	r := &Registry{
		store:          store,
		now:            time.Now,
		tokenGenerator: token.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates the email, generates a download token and persists a new
// invited candidate. A store uniqueness violation (token collision) is
// surfaced as a persistence failure rather than silently retried, so the
// event stays auditable.
func (r *Registry) Create(ctx context.Context, email string) (domain.Candidate, error) {
	candidate, err := domain.NewCandidate(email, r.now, r.tokenGenerator, nil)
	if err != nil {
		return domain.Candidate{}, err
	}

	if err := r.store.InsertCandidate(ctx, candidate); err != nil {
		return domain.Candidate{}, apperrors.WrapWithMetadata(
			apperrors.CodePersistenceFailure,
			"insert candidate",
			map[string]string{"candidate_id": candidate.ID, "email": candidate.Email},
			err,
		)
	}
	return candidate, nil
}

// GetByToken resolves a download token to its candidate. A missing token is
// a normal outcome (CodeNotFound), distinct from store failures.
func (r *Registry) GetByToken(ctx context.Context, downloadToken string) (domain.Candidate, error) {
	candidate, err := r.store.GetCandidateByToken(ctx, downloadToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Candidate{}, apperrors.New(apperrors.CodeNotFound, "no candidate for token")
		}
		return domain.Candidate{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "get candidate by token", err)
	}
	return candidate, nil
}

// ListAll returns every candidate ordered by creation time, newest first.
func (r *Registry) ListAll(ctx context.Context) ([]domain.Candidate, error) {
	candidates, err := r.store.ListCandidates(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "list candidates", err)
	}
	return candidates, nil
}

// MarkDownloaded records one successful download for the candidate.
//
// The counter increments on every call; status and downloaded_at change only
// on the first download and never move backward. The increment is a
// read-modify-write over the store with no locking: concurrent calls for the
// same candidate can lose an update. That race is an accepted property of
// the best-effort counter, not something this method tries to fix.
func (r *Registry) MarkDownloaded(ctx context.Context, candidateID string) error {
	candidate, err := r.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeNotFound, "candidate not found",
				map[string]string{"candidate_id": candidateID})
		}
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "get candidate for download", err)
	}

	updated := candidate.ApplyDownload(r.now())
	if err := r.store.UpdateCandidateDownloadState(ctx, updated); err != nil {
		return apperrors.WrapWithMetadata(
			apperrors.CodePersistenceFailure,
			"update candidate download state",
			map[string]string{"candidate_id": candidateID},
			fmt.Errorf("mark downloaded: %w", err),
		)
	}
	return nil
}
