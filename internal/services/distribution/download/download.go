// Package download composes the candidate registry and release cache to
// answer download requests.
package download

import (
	"context"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
)

// CandidateRegistry is the orchestrator's view of candidate operations.
type CandidateRegistry interface {
	GetByToken(ctx context.Context, token string) (domain.Candidate, error)
	MarkDownloaded(ctx context.Context, candidateID string) error
}

// ReleaseSource is the orchestrator's view of the release cache read path.
type ReleaseSource interface {
	LatestWithFallback(ctx context.Context) (domain.Release, error)
}

// Outcome classifies a resolved download request.
type Outcome int

const (
	// OutcomeInvalid indicates the token matched no candidate.
	OutcomeInvalid Outcome = iota
	// OutcomeNoArtifact indicates a valid token with nothing to serve.
	OutcomeNoArtifact
	// OutcomeReady indicates a valid token and an artifact URL to hand back.
	OutcomeReady
)

// Result is the answer to one download request.
type Result struct {
	Outcome   Outcome
	URL       string
	Candidate domain.Candidate
}

// Orchestrator resolves download tokens to artifact locations.
type Orchestrator struct {
	registry CandidateRegistry
	releases ReleaseSource
}

// New creates an Orchestrator.
func New(registry CandidateRegistry, releases ReleaseSource) *Orchestrator {
	return &Orchestrator{registry: registry, releases: releases}
}

// Resolve answers "is this token valid, and if so, where is the artifact".
//
// Ordering is fixed: the token is checked before any cache or upstream
// interaction, so an invalid token never triggers an upstream call. The
// candidate is marked downloaded only when an artifact URL is actually
// handed back; a valid token with no artifact has no side effects.
func (o *Orchestrator) Resolve(ctx context.Context, token string) (Result, error) {
	candidate, err := o.registry.GetByToken(ctx, token)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return Result{Outcome: OutcomeInvalid}, nil
		}
		return Result{}, err
	}

	release, err := o.releases.LatestWithFallback(ctx)
	if err != nil || release.ZipAssetURL == "" {
		return Result{Outcome: OutcomeNoArtifact, Candidate: candidate}, nil
	}

	if err := o.registry.MarkDownloaded(ctx, candidate.ID); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeReady, URL: release.ZipAssetURL, Candidate: candidate}, nil
}
