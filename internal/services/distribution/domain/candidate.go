// Package domain provides candidate and release entities for challenge distribution.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/takehome/internal/id"
	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/token"
)

// ErrEmailInvalid indicates a missing or malformed candidate email.
var ErrEmailInvalid = apperrors.New(apperrors.CodeCandidateEmailInvalid, "a valid email address is required")

// Status represents the lifecycle status of a candidate.
type Status int

const (
	// StatusUnspecified represents an invalid candidate status.
	StatusUnspecified Status = iota
	// StatusInvited indicates a candidate has been invited but has not downloaded.
	StatusInvited
	// StatusDownloaded indicates a candidate has downloaded the challenge at least once.
	StatusDownloaded
	// StatusCompleted indicates a candidate has submitted their solution.
	// The transition into this status is an administrative action outside
	// this service; it is represented here so reads never lose it.
	StatusCompleted
)

// String returns the persisted representation of the status.
func (s Status) String() string {
	switch s {
	case StatusInvited:
		return "invited"
	case StatusDownloaded:
		return "downloaded"
	case StatusCompleted:
		return "completed"
	default:
		return "unspecified"
	}
}

// ParseStatus converts a persisted status string into a Status.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "invited":
		return StatusInvited, nil
	case "downloaded":
		return StatusDownloaded, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown candidate status %q", value)
	}
}

// Candidate represents one invited candidate and their download state.
type Candidate struct {
	ID            string
	Email         string
	Token         string
	Status        Status
	CreatedAt     time.Time
	DownloadedAt  time.Time // zero until the first successful download
	DownloadCount int
}

// NewCandidate creates a candidate with a generated ID, download token and
// timestamps. Email validation is intentionally minimal: the address must be
// non-empty and contain an '@'; deliverability is not this service's concern.
func NewCandidate(email string, now func() time.Time, tokenGenerator func() (string, error), idGenerator func() (string, error)) (Candidate, error) {
	if now == nil {
		now = time.Now
	}
	if tokenGenerator == nil {
		tokenGenerator = token.New
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return Candidate{}, ErrEmailInvalid
	}

	candidateID, err := idGenerator()
	if err != nil {
		return Candidate{}, fmt.Errorf("generate candidate id: %w", err)
	}
	downloadToken, err := tokenGenerator()
	if err != nil {
		return Candidate{}, fmt.Errorf("generate download token: %w", err)
	}

	return Candidate{
		ID:        candidateID,
		Email:     email,
		Token:     downloadToken,
		Status:    StatusInvited,
		CreatedAt: now().UTC(),
	}, nil
}

// ApplyDownload returns the candidate state after one successful download.
//
// The download counter increments on every call. Status and DownloadedAt
// move only on the first download and never backward: a candidate already
// downloaded (or completed) keeps their status and original timestamp.
func (c Candidate) ApplyDownload(now time.Time) Candidate {
	c.DownloadCount++
	if c.Status == StatusInvited {
		c.Status = StatusDownloaded
		c.DownloadedAt = now.UTC()
	}
	return c
}
