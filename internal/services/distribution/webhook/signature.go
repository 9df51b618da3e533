package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the HTTP header carrying the claimed body signature.
const SignatureHeader = "X-Signature"

// Sign computes the signature header value for a body: an HMAC-SHA256 of
// the exact body bytes, hex-encoded, with the "sha256=" prefix.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the claimed header matches the body under
// the shared secret. It fails closed: a missing header or missing secret is
// a verification failure. Comparison is constant-time; short-circuit byte
// comparison would leak match length through timing.
func VerifySignature(body []byte, claimedHeader, secret string) bool {
	if claimedHeader == "" || secret == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(claimedHeader), []byte(expected))
}
