package handler

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/service"
)

// maxIngestBody caps ingest request bodies after decompression.
const maxIngestBody = 1 << 20

var (
	errMissingFields = errors.New("endpoint and method are required")
	errUnknownMethod = errors.New("method is not a standard HTTP verb")
)

// IngestHandler serves POST /api/metrics: an external reporter (a browser
// beacon or the probe agent) submits one sample.
//
// Responses:
//   - 202 Accepted: the sample was recorded
//   - 400 Bad Request: malformed JSON, missing endpoint/method, a method that
//     is not a standard HTTP verb, or a sample the recorder rejected
func (h *Handler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	var sample model.Sample
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&sample); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.ingest(sample); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// IngestBatchHandler serves POST /api/metrics/batch. Samples that fail
// validation are skipped and counted; the rest are recorded in order.
func (h *Handler) IngestBatchHandler(w http.ResponseWriter, r *http.Request) {
	var samples []model.Sample
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&samples); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var result model.IngestResult
	for _, sample := range samples {
		if err := h.ingest(sample); err != nil {
			result.Rejected++
			continue
		}
		result.Accepted++
	}

	if result.Rejected > 0 {
		log.Info().Int("accepted", result.Accepted).Int("rejected", result.Rejected).Msg("batch ingest skipped invalid samples")
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *Handler) ingest(sample model.Sample) error {
	if sample.Endpoint == "" || sample.Method == "" {
		return errMissingFields
	}
	if !model.IsKnownMethod(sample.Method) {
		return errUnknownMethod
	}
	err := h.recorder.Record(sample)
	if errors.Is(err, service.ErrInvalidSample) {
		log.Debug().Err(err).Str("endpoint", sample.Endpoint).Msg("ingested sample rejected")
	}
	return err
}
