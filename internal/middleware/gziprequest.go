package middleware

import (
	"compress/gzip"
	"mime"
	"net/http"

	"github.com/rs/zerolog/log"
)

// GzipRequestMiddleware transparently decompresses gzip-encoded JSON request
// bodies. Compressed bodies of any other content type are rejected with 415.
func GzipRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "application/json" {
			http.Error(w, "Unsupported content type", http.StatusUnsupportedMediaType)
			return
		}

		g, err := gzip.NewReader(r.Body)
		if err != nil {
			log.Debug().Err(err).Str("uri", r.RequestURI).Msg("invalid gzip body")
			http.Error(w, "Failed to read gzip body", http.StatusBadRequest)
			return
		}
		defer g.Close()

		r.Body = g
		r.Header.Del("Content-Encoding")
		r.Header.Del("Content-Length")
		r.ContentLength = -1
		next.ServeHTTP(w, r)
	})
}
