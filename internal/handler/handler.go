package handler

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/service"
)

type Handler struct {
	recorder *service.Recorder
}

func NewHandler(recorder *service.Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// SummaryHandler serves GET /api/metrics: the current count, error count and
// p50/p95/p99 latency over the sample window. It always answers 200, with
// zeros when nothing has been recorded yet.
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recorder.Summarize())
}

// SamplesHandler serves GET /api/metrics/samples: the raw window, oldest first.
func (h *Handler) SamplesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recorder.Samples())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}
