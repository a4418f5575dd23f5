package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/goccy/go-json"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/repository"
	"github.com/idudko/storefront-latency/internal/service"
)

// newTestHandler returns a handler over a fresh recorder with the given window capacity.
func newTestHandler(capacity int) (*Handler, *service.Recorder) {
	recorder := service.NewRecorder(repository.NewWindow(capacity), nil)
	return NewHandler(recorder), recorder
}

// jsonRequest builds a POST request with v encoded as the JSON body.
func jsonRequest(url string, v any) *http.Request {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// sample returns a valid sample with the given status and latency.
func sample(status int, latency float64) model.Sample {
	return model.Sample{
		TimestampMs: 1_700_000_000_000,
		Endpoint:    "/api/products",
		Method:      http.MethodGet,
		StatusCode:  status,
		LatencyMs:   latency,
	}
}
