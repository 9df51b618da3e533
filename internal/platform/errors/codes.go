// Package errors provides structured error handling for the distribution service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Candidate errors
	CodeCandidateEmailInvalid Code = "CANDIDATE_EMAIL_INVALID"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"

	// Upstream provider errors
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"

	// Webhook errors
	CodeWebhookUnauthorized   Code = "WEBHOOK_UNAUTHORIZED"
	CodeWebhookPayloadInvalid Code = "WEBHOOK_PAYLOAD_INVALID"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures
	case CodeCandidateEmailInvalid, CodeWebhookPayloadInvalid:
		return http.StatusBadRequest

	// Not found - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	// Unauthorized - signature verification failed
	case CodeWebhookUnauthorized:
		return http.StatusUnauthorized

	// Bad gateway - upstream provider unreachable or non-success status
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
