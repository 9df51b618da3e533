// Package httpapi exposes the distribution service over HTTP with JSON
// bodies.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	apperrors "github.com/louisbranch/takehome/internal/platform/errors"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
	"github.com/louisbranch/takehome/internal/services/distribution/download"
	"github.com/louisbranch/takehome/internal/services/distribution/webhook"
)

// maxBodyBytes caps inbound request bodies. Invite and webhook payloads are
// small; anything larger is hostile or broken.
const maxBodyBytes = 1 << 20

var tracer = otel.Tracer("github.com/louisbranch/takehome/internal/services/distribution/httpapi")

// CandidateService is the handler's view of candidate operations.
type CandidateService interface {
	Create(ctx context.Context, email string) (domain.Candidate, error)
	ListAll(ctx context.Context) ([]domain.Candidate, error)
}

// DownloadService resolves download tokens.
type DownloadService interface {
	Resolve(ctx context.Context, token string) (download.Result, error)
}

// WebhookService verifies and applies inbound release notifications.
type WebhookService interface {
	Handle(ctx context.Context, body []byte, claimedSignature string) (webhook.Result, error)
}

// InviteSender delivers the download link after a candidate is created.
type InviteSender interface {
	SendInvite(ctx context.Context, address, downloadToken string) error
}

// Handler routes distribution requests.
type Handler struct {
	candidates CandidateService
	downloads  DownloadService
	webhooks   WebhookService
	invites    InviteSender
}

// New creates a Handler. invites may be nil, in which case created
// candidates are not notified.
func New(candidates CandidateService, downloads DownloadService, webhooks WebhookService, invites InviteSender) *Handler {
	return &Handler{
		candidates: candidates,
		downloads:  downloads,
		webhooks:   webhooks,
		invites:    invites,
	}
}

// RegisterRoutes attaches the distribution endpoints to the mux. Every
// endpoint records one span per request; the health probe stays untraced.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("/invite", traced("invite", h.handleInvite))
	mux.HandleFunc("/candidates", traced("candidates", h.handleCandidates))
	mux.HandleFunc("/download/", traced("download", h.handleDownload))
	mux.HandleFunc("/webhook/release", traced("webhook.release", h.handleWebhook))
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// traced starts a span covering the whole request and hands the span
// context down through the request context.
func traced(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), name)
		defer span.End()
		next(w, r.WithContext(ctx))
	}
}

type candidatePayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type candidateListEntry struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DownloadedAt  *time.Time `json:"downloaded_at"`
	DownloadCount int        `json:"download_count"`
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Email string `json:"email"`
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	if err := json.Unmarshal(body, &request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate, err := h.candidates.Create(r.Context(), request.Email)
	if err != nil {
		writeDomainError(w, err, "create candidate")
		return
	}
	if h.invites != nil {
		if err := h.invites.SendInvite(r.Context(), candidate.Email, candidate.Token); err != nil {
			// Delivery is best effort; the candidate row already exists
			// and the operator can resend from the stored token.
			log.Printf("send invite for %s: %v", candidate.Email, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"candidate": candidatePayload{
			ID:    candidate.ID,
			Email: candidate.Email,
			Token: candidate.Token,
		},
	})
}

func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	candidates, err := h.candidates.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, err, "list candidates")
		return
	}

	// Tokens are credentials and never appear in list responses.
	entries := make([]candidateListEntry, 0, len(candidates))
	for _, candidate := range candidates {
		entry := candidateListEntry{
			ID:            candidate.ID,
			Email:         candidate.Email,
			Status:        candidate.Status.String(),
			CreatedAt:     candidate.CreatedAt,
			DownloadCount: candidate.DownloadCount,
		}
		if !candidate.DownloadedAt.IsZero() {
			downloadedAt := candidate.DownloadedAt
			entry.DownloadedAt = &downloadedAt
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimPrefix(r.URL.Path, "/download/")
	if token == "" || strings.Contains(token, "/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "error": "Invalid token"})
		return
	}

	result, err := h.downloads.Resolve(r.Context(), token)
	if err != nil {
		writeDomainError(w, err, "resolve download")
		return
	}

	switch result.Outcome {
	case download.OutcomeInvalid:
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "error": "Invalid token"})
	case download.OutcomeNoArtifact:
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "error": "no release available"})
	default:
		// Resolve has already recorded the download; report the status the
		// candidate holds after it without a second read.
		status := result.Candidate.Status
		if status == domain.StatusInvited {
			status = domain.StatusDownloaded
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":       true,
			"downloadUrl": result.URL,
			"candidate": map[string]string{
				"email":  result.Candidate.Email,
				"status": status.String(),
			},
		})
	}
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	result, err := h.webhooks.Handle(r.Context(), body, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		if errors.Is(err, webhook.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid signature"})
			return
		}
		writeDomainError(w, err, "handle webhook")
		return
	}

	message := result.Message
	if message == "" {
		message = "webhook received but no action taken"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// writeDomainError maps a domain error to its HTTP status and logs the
// failure with its metadata before replying with a generic message.
func writeDomainError(w http.ResponseWriter, err error, operation string) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", operation, err)
	}
	var domainErr *apperrors.Error
	message := "internal error"
	if errors.As(err, &domainErr) && status < http.StatusInternalServerError {
		message = domainErr.Message
	}
	if code == apperrors.CodeCandidateEmailInvalid {
		writeJSON(w, status, map[string]any{"success": false, "error": message})
		return
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
