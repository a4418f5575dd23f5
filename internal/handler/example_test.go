package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
)

// Example_summary demonstrates reading the latency summary.
//
// Endpoint: GET /api/metrics
//
// The handler answers 200 even when the window is empty.
func Example_summary() {
	h, recorder := newTestHandler(100)
	for _, latency := range []float64{10, 20, 30, 40, 50} {
		_ = recorder.Record(sample(http.StatusOK, latency))
	}
	_ = recorder.Record(sample(http.StatusBadGateway, 5))

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()
	h.SummaryHandler(w, req)

	body, _ := io.ReadAll(w.Result().Body)
	fmt.Printf("Status: %d\n%s\n", w.Code, body)
	// Output:
	// Status: 200
	// {"count":6,"errorCount":1,"p50LatencyMs":20,"p95LatencyMs":50,"p99LatencyMs":50}
}

// Example_ingest demonstrates reporting a single sample from outside the
// process, e.g. from a browser beacon.
//
// Endpoint: POST /api/metrics
//
// Example request body:
//
//	{"timestamp":1700000000000,"endpoint":"/api/products","method":"GET","status":200,"latencyMs":12.5}
func Example_ingest() {
	h, recorder := newTestHandler(100)

	w := httptest.NewRecorder()
	h.IngestHandler(w, jsonRequest("/api/metrics", sample(http.StatusOK, 12.5)))
	fmt.Printf("Status: %d, held: %d\n", w.Code, recorder.Len())

	w = httptest.NewRecorder()
	h.IngestHandler(w, jsonRequest("/api/metrics", sample(http.StatusOK, -1)))
	fmt.Printf("Status: %d, held: %d\n", w.Code, recorder.Len())
	// Output:
	// Status: 202, held: 1
	// Status: 400, held: 1
}
