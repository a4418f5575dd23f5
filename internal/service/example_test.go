package service_test

import (
	"errors"
	"fmt"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/repository"
	"github.com/idudko/storefront-latency/internal/service"
)

// ExampleRecorder_Summarize records ten samples and prints the nearest-rank
// percentiles over them.
func ExampleRecorder_Summarize() {
	recorder := service.NewRecorder(repository.NewWindow(1000), nil)

	for i := 1; i <= 10; i++ {
		err := recorder.Record(model.Sample{
			TimestampMs: int64(i),
			Endpoint:    "/api/products",
			Method:      "GET",
			StatusCode:  200,
			LatencyMs:   float64(i * 10),
		})
		if err != nil {
			fmt.Println(err)
		}
	}

	s := recorder.Summarize()
	fmt.Printf("count=%d p50=%v p95=%v p99=%v\n", s.Count, s.P50LatencyMs, s.P95LatencyMs, s.P99LatencyMs)
	// Output: count=10 p50=50 p95=100 p99=100
}

// ExampleRecorder_Record shows how a rejected sample is reported.
func ExampleRecorder_Record() {
	recorder := service.NewRecorder(repository.NewWindow(10), nil)

	err := recorder.Record(model.Sample{Endpoint: "/", Method: "GET", StatusCode: 200, LatencyMs: -1})

	fmt.Println(errors.Is(err, service.ErrInvalidSample))
	fmt.Println(recorder.Summarize().Count)
	// Output:
	// true
	// 0
}
