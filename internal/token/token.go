// Package token generates short URL-safe download credentials.
//
// Tokens are 12 characters drawn from the 64-character alphabet A-Za-z0-9_-
// using a cryptographically strong entropy source. With 64^12 possible
// values, accidental collisions across any realistic candidate population
// are negligible; the store's uniqueness constraint remains the enforced
// invariant.
package token

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Length is the number of characters in a generated token.
const Length = 12

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// New returns a new download token from the crypto/rand entropy source.
func New() (string, error) {
	return NewWithReader(rand.Reader)
}

// NewWithReader returns a new download token using the provided entropy
// source. Each byte maps to one alphabet character; the 64-entry alphabet
// divides 256 evenly, so selection is unbiased.
func NewWithReader(reader io.Reader) (string, error) {
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, Length)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("read token entropy: %w", err)
	}
	out := make([]byte, Length)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
