// Package signature verifies HMAC-SHA256 signatures on inbound webhooks.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Verify reports whether sig is the HMAC-SHA256 of payload under secret.
// sig may be hex (optionally prefixed "sha256=") or standard base64.
func Verify(payload []byte, sig string, secret string) bool {
	if secret == "" || sig == "" {
		return false
	}

	expected := sum(payload, secret)
	sig = strings.TrimPrefix(strings.TrimSpace(sig), "sha256=")

	if given, err := hex.DecodeString(sig); err == nil && hmac.Equal(given, expected) {
		return true
	}
	if given, err := base64.StdEncoding.DecodeString(sig); err == nil && hmac.Equal(given, expected) {
		return true
	}
	return false
}

// SignHex returns the hex signature. Used by tooling and tests.
func SignHex(payload []byte, secret string) string {
	return hex.EncodeToString(sum(payload, secret))
}

// SignBase64 returns the base64 signature in the form Intuit sends.
func SignBase64(payload []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(sum(payload, secret))
}

func sum(payload []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return h.Sum(nil)
}
