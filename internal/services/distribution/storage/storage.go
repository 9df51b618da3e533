// Package storage defines persistence contracts for distribution service state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/takehome/internal/services/distribution/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate indicates an insert violated a uniqueness constraint
// (candidates.token or releases.tag_name). Callers must surface this as a
// persistence failure, not retry it silently.
var ErrDuplicate = errors.New("duplicate record")

// CandidateStore persists candidate records.
type CandidateStore interface {
	InsertCandidate(ctx context.Context, candidate domain.Candidate) error
	GetCandidateByToken(ctx context.Context, token string) (domain.Candidate, error)
	GetCandidateByID(ctx context.Context, id string) (domain.Candidate, error)
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)

	// UpdateCandidateDownloadState writes status, downloaded_at and
	// download_count for an existing candidate. It is the write half of the
	// registry's read-modify-write; there is no atomic increment primitive.
	UpdateCandidateDownloadState(ctx context.Context, candidate domain.Candidate) error
}

// ReleaseStore persists cached releases keyed by tag.
type ReleaseStore interface {
	// InsertRelease stores a new release and returns it with its
	// store-assigned ID.
	InsertRelease(ctx context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error)
	GetReleaseByTag(ctx context.Context, tagName string) (domain.Release, error)

	// LatestRelease returns the most recently created stored release, or
	// ErrNotFound when the store is empty.
	LatestRelease(ctx context.Context) (domain.Release, error)
}
