package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/idudko/storefront-latency/internal/export"
	"github.com/idudko/storefront-latency/internal/middleware"
	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/repository"
	"github.com/idudko/storefront-latency/internal/service"
	"github.com/idudko/storefront-latency/pkg/hash"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *service.Recorder) {
	t.Helper()
	if opts.Recorder == nil {
		opts.Recorder = service.NewRecorder(repository.NewWindow(100), nil)
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv, opts.Recorder
}

func getSummary(t *testing.T, url string) model.Summary {
	t.Helper()
	resp, err := http.Get(url + "/api/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/metrics status = %d", resp.StatusCode)
	}
	var s model.Summary
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRouterRecordsEveryRequest(t *testing.T) {
	srv, recorder := newTestServer(t, Options{})

	for range 3 {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}
	resp, err := http.Get(srv.URL + "/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	samples := recorder.Samples()
	if len(samples) != 4 {
		t.Fatalf("recorded %d samples, want 4", len(samples))
	}
	if samples[0].Endpoint != "/healthz" || samples[0].Method != http.MethodGet || samples[0].StatusCode != http.StatusOK {
		t.Errorf("first sample = %+v", samples[0])
	}
	if samples[3].Endpoint != middleware.UnmatchedEndpoint || samples[3].StatusCode != http.StatusNotFound {
		t.Errorf("unmatched sample = %+v", samples[3])
	}

	// The summary request itself is recorded after the response is written.
	if got := getSummary(t, srv.URL); got.Count != 4 || got.ErrorCount != 0 {
		t.Errorf("summary = %+v, want count 4 and no errors", got)
	}
}

func TestRouterPingWithoutDatabase(t *testing.T) {
	srv, recorder := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if s := recorder.Summarize(); s.ErrorCount != 1 {
		t.Errorf("errorCount = %d, want 1", s.ErrorCount)
	}
}

func TestRouterIngestGzipSigned(t *testing.T) {
	const key = "secret"
	srv, recorder := newTestServer(t, Options{Key: key})

	batch := []model.Sample{
		{Endpoint: "/api/products", Method: http.MethodGet, StatusCode: 200, LatencyMs: 12},
		{Endpoint: "/api/products", Method: http.MethodGet, StatusCode: 200, LatencyMs: -3},
	}
	data, _ := json.Marshal(batch)
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	gw.Close()
	compressed := buf.Bytes()

	tests := []struct {
		name      string
		signature string
		wantCode  int
	}{
		{name: "valid signature", signature: hash.Sign(compressed, key), wantCode: http.StatusAccepted},
		{name: "wrong signature", signature: hash.Sign(compressed, "other"), wantCode: http.StatusBadRequest},
		{name: "unsigned", signature: "", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/metrics/batch", bytes.NewReader(compressed))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Content-Encoding", "gzip")
			if tt.signature != "" {
				req.Header.Set(hash.Header, tt.signature)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantCode, body)
			}
		})
	}

	var ingested int
	for _, s := range recorder.Samples() {
		if s.Endpoint == "/api/products" {
			ingested++
		}
	}
	if ingested != 1 {
		t.Errorf("ingested %d samples, want 1", ingested)
	}
}

func TestRouterTrustedSubnet(t *testing.T) {
	srv, _ := newTestServer(t, Options{TrustedSubnet: "10.0.0.0/8"})

	tests := []struct {
		name     string
		realIP   string
		wantCode int
	}{
		{name: "inside subnet", realIP: "10.1.2.3", wantCode: http.StatusOK},
		{name: "outside subnet", realIP: "192.168.1.1", wantCode: http.StatusForbidden},
		{name: "missing header", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/metrics", nil)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestRouterRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimiter: middleware.NewRateLimiter(1, 1)})

	codes := make([]int, 0, 2)
	for range 2 {
		resp, err := http.Post(srv.URL+"/api/metrics", "application/json",
			strings.NewReader(`{"endpoint":"/x","method":"GET","status":200,"latencyMs":1}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != http.StatusAccepted || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [202 429]", codes)
	}
}

func TestRouterPrometheusExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer := export.NewPrometheusObserver(registry)
	subject := export.NewSubject()
	subject.Attach(observer)
	dispatcher := export.NewDispatcher(subject, 1, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)

	recorder := service.NewRecorder(repository.NewWindow(100), dispatcher)
	srv, _ := newTestServer(t, Options{Recorder: recorder, Gatherer: registry, Export: dispatcher})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if err := dispatcher.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `storefront_requests_total{endpoint="/healthz",method="GET",status="200"} 1`) {
		t.Errorf("exposition missing healthz counter:\n%s", body)
	}
}

func TestServerRunShutdown(t *testing.T) {
	recorder := service.NewRecorder(repository.NewWindow(10), nil)
	s := New("127.0.0.1:0", NewRouter(Options{Recorder: recorder}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
