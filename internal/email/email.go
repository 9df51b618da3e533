// Package email delivers invite notifications to candidates.
package email

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Sender delivers an invite carrying the candidate's download link.
type Sender interface {
	SendInvite(ctx context.Context, address, downloadToken string) error
}

// LogSender writes invites to the process log instead of sending mail.
// It stands in for a real provider in development and in tests.
type LogSender struct {
	BaseURL string
	Logger  *log.Logger
}

// SendInvite logs the invite with the candidate's download link.
func (s *LogSender) SendInvite(ctx context.Context, address, downloadToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link := DownloadLink(s.BaseURL, downloadToken)
	if s.Logger != nil {
		s.Logger.Printf("invite for %s: %s", address, link)
		return nil
	}
	log.Printf("invite for %s: %s", address, link)
	return nil
}

// DownloadLink builds the candidate-facing download URL for a token.
func DownloadLink(baseURL, downloadToken string) string {
	return fmt.Sprintf("%s/download/%s", strings.TrimRight(baseURL, "/"), downloadToken)
}
