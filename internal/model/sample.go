package model

import "net/http"

const (
	// MinStatusCode and MaxStatusCode bound the HTTP status codes a Sample may carry.
	MinStatusCode = 100
	MaxStatusCode = 599

	// ServerErrorThreshold is the first status code counted as an error.
	ServerErrorThreshold = 500

	// LogType is the type tag written on every per-sample log line.
	LogType = "metric"
)

// Sample is one observed request outcome.
//
// Samples are passed and stored by value. Once a Sample has been recorded the
// window owns its own copy, Params included, so callers may reuse their
// variable and its map freely.
//
// Example:
//
//	model.Sample{
//		TimestampMs: time.Now().UnixMilli(),
//		Endpoint:    "/api/products/{slug}",
//		Method:      http.MethodGet,
//		StatusCode:  http.StatusOK,
//		LatencyMs:   12.5,
//	}
type Sample struct {
	// TimestampMs is the request completion time in epoch milliseconds.
	TimestampMs int64 `json:"timestamp"`

	// Endpoint is the logical route identifier, e.g. "/api/creators/{id}".
	// The chi route pattern is used when the request was routed.
	Endpoint string `json:"endpoint"`

	// Method is the HTTP verb.
	Method string `json:"method"`

	// StatusCode is the final HTTP response status (100-599).
	StatusCode int `json:"status"`

	// LatencyMs is the wall-clock request duration in milliseconds. Never negative.
	LatencyMs float64 `json:"latencyMs"`

	// Error is a short failure description. Empty when the request succeeded.
	Error string `json:"error,omitempty"`

	// Params holds route parameters. Only emitted on the log side channel.
	Params map[string]string `json:"params,omitempty"`
}

// IsError reports whether the sample counts towards Summary.ErrorCount.
func (s Sample) IsError() bool {
	return s.StatusCode >= ServerErrorThreshold || s.Error != ""
}

// IsKnownMethod reports whether method is one of the standard HTTP verbs.
func IsKnownMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// Summary is a point-in-time view of the samples currently held in the window.
//
// The JSON field names are part of the public metrics endpoint contract.
type Summary struct {
	Count        int     `json:"count"`
	ErrorCount   int     `json:"errorCount"`
	P50LatencyMs float64 `json:"p50LatencyMs"`
	P95LatencyMs float64 `json:"p95LatencyMs"`
	P99LatencyMs float64 `json:"p99LatencyMs"`
}

// IngestResult is returned by the batch ingest endpoint.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}
