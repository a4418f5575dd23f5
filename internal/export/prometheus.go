package export

import (
	"context"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/idudko/storefront-latency/internal/model"
)

const (
	// maxEndpointLabels bounds the distinct endpoint label values. Ingested
	// samples carry client-supplied endpoints, so later newcomers share the
	// overflow label.
	maxEndpointLabels = 256
	overflowLabel     = "other"
)

// latencyBuckets are in milliseconds.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// PrometheusObserver mirrors samples into Prometheus collectors.
//
// Label cardinality is bounded: unknown methods and endpoints beyond
// maxEndpointLabels are reported as "other".
type PrometheusObserver struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	mu           sync.Mutex
	endpoints    map[string]struct{}
	maxEndpoints int
}

// NewPrometheusObserver registers its collectors with registry.
func NewPrometheusObserver(registry prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_requests_total",
			Help: "Total number of recorded requests.",
		}, []string{"endpoint", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_request_latency_ms",
			Help:    "Recorded request latency in milliseconds.",
			Buckets: latencyBuckets,
		}, []string{"endpoint", "method"}),
		endpoints:    make(map[string]struct{}),
		maxEndpoints: maxEndpointLabels,
	}
	registry.MustRegister(o.requests, o.latency)
	return o
}

func (o *PrometheusObserver) Name() string { return "prometheus" }

func (o *PrometheusObserver) Notify(_ context.Context, e Envelope) error {
	endpoint, method := o.labels(e)
	o.requests.WithLabelValues(endpoint, method, strconv.Itoa(e.StatusCode)).Inc()
	o.latency.WithLabelValues(endpoint, method).Observe(e.LatencyMs)
	return nil
}

func (o *PrometheusObserver) labels(e Envelope) (endpoint, method string) {
	method = e.Method
	if !model.IsKnownMethod(method) {
		method = overflowLabel
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.endpoints[e.Endpoint]; ok {
		return e.Endpoint, method
	}
	if len(o.endpoints) >= o.maxEndpoints {
		return overflowLabel, method
	}
	o.endpoints[e.Endpoint] = struct{}{}
	return e.Endpoint, method
}
