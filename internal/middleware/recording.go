package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/service"
)

// UnmatchedEndpoint is recorded for requests no route matched, so arbitrary
// paths do not become distinct endpoints.
const UnmatchedEndpoint = "unmatched"

// SampleRecorder accepts request samples. *service.Recorder implements it.
type SampleRecorder interface {
	Record(sample model.Sample) error
}

// RecordingMiddleware measures every request and reports it to recorder once
// the handler has returned.
//
// The endpoint is the chi route pattern (for example "/api/products/{slug}"),
// route parameters are attached as params, and responses with status >= 500
// carry the status text as the error. A rejected sample is logged and the
// response is left untouched.
//
// Register it before chi's Recoverer so recovered panics are recorded as 500s.
func RecordingMiddleware(recorder SampleRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			finished := time.Now()
			sample := model.Sample{
				TimestampMs: finished.UnixMilli(),
				Method:      r.Method,
				StatusCode:  statusOf(ww),
				LatencyMs:   float64(finished.Sub(start)) / float64(time.Millisecond),
			}
			sample.Endpoint, sample.Params = routeOf(r)
			if sample.StatusCode >= model.ServerErrorThreshold {
				sample.Error = http.StatusText(sample.StatusCode)
			}

			if err := recorder.Record(sample); err != nil {
				logRejected(err, sample)
			}
		})
	}
}

func routeOf(r *http.Request) (string, map[string]string) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path, nil
	}

	pattern := rctx.RoutePattern()
	if pattern == "" {
		return UnmatchedEndpoint, nil
	}

	var params map[string]string
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		if params == nil {
			params = make(map[string]string, len(rctx.URLParams.Keys))
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return pattern, params
}

func logRejected(err error, s model.Sample) {
	ev := log.Error()
	if errors.Is(err, service.ErrInvalidSample) {
		ev = log.Warn()
	}
	ev.Err(err).
		Str("endpoint", s.Endpoint).
		Str("method", s.Method).
		Int("status", s.StatusCode).
		Float64("latencyMs", s.LatencyMs).
		Msg("request sample not recorded")
}
