package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/pkg/hash"
)

// HashValidationMiddleware verifies the HMAC-SHA256 signature of request
// bodies sent in the HashSHA256 header.
//
// Validation is skipped only when key is empty. With a key configured, a
// missing, "none" or mismatching signature is answered with 400. The signature covers the
// body as received, so register this middleware before GzipRequestMiddleware
// when clients sign the compressed payload.
func HashValidationMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			receivedHash := r.Header.Get(hash.Header)
			if receivedHash == "" || receivedHash == "none" {
				log.Warn().Str("uri", r.RequestURI).Msg("missing hash signature")
				http.Error(w, "Missing hash signature", http.StatusBadRequest)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !hash.Verify(body, key, receivedHash) {
				log.Warn().Str("uri", r.RequestURI).Msg("invalid hash signature")
				http.Error(w, "Invalid hash signature", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
