// Package hash signs and verifies request bodies with HMAC-SHA256.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header carries the hex-encoded HMAC-SHA256 of the request body.
const Header = "HashSHA256"

// Sign returns the hex-encoded HMAC-SHA256 of data under key.
// An empty key yields an empty signature.
//
// Example:
//
//	body := []byte(`[{"endpoint":"/","method":"GET","status":200,"latencyMs":12}]`)
//	req.Header.Set(hash.Header, hash.Sign(body, "my-secret-key"))
func Sign(data []byte, key string) string {
	if key == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature is the HMAC-SHA256 of data under key.
//
// Validation is disabled for an empty key (always true). An empty signature
// never verifies. The comparison is constant-time.
func Verify(data []byte, key, signature string) bool {
	if key == "" {
		return true
	}
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(data, key)), []byte(signature))
}
