package percentile

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestNearestRank(t *testing.T) {
	tenSamples := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{name: "p50 of ten", sorted: tenSamples, p: 0.50, want: 50},
		{name: "p95 of ten", sorted: tenSamples, p: 0.95, want: 100},
		{name: "p99 of ten", sorted: tenSamples, p: 0.99, want: 100},
		{name: "p100 clamps to last", sorted: tenSamples, p: 1, want: 100},
		{name: "p0 clamps to first", sorted: tenSamples, p: 0, want: 10},
		{name: "single element", sorted: []float64{7}, p: 0.99, want: 7},
		{name: "two elements p50", sorted: []float64{1, 2}, p: 0.5, want: 1},
		{name: "empty", sorted: nil, p: 0.5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearestRank(tt.sorted, tt.p); got != tt.want {
				t.Errorf("NearestRank(%v): expected %v, got %v", tt.p, tt.want, got)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		n    int
		p    float64
		want int
	}{
		{n: 10, p: 0.5, want: 4},
		{n: 10, p: 0.95, want: 9},
		{n: 10, p: 0.99, want: 9},
		{n: 3, p: 0.5, want: 1},
		{n: 1, p: 0.01, want: 0},
		{n: 5, p: 2, want: 4},
	}

	for _, tt := range tests {
		if got := Index(tt.n, tt.p); got != tt.want {
			t.Errorf("Index(%d, %v): expected %d, got %d", tt.n, tt.p, tt.want, got)
		}
	}
}

func TestSorted_Ordering(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		values := make([]float64, 1+r.IntN(500))
		for i := range values {
			values[i] = r.Float64() * 1000
		}

		got := Sorted(values, 0.5, 0.95, 0.99)

		if !slices.IsSorted(values) {
			t.Fatal("expected values to be sorted in place")
		}
		if got[0] > got[1] || got[1] > got[2] {
			t.Fatalf("expected p50 <= p95 <= p99, got %v", got)
		}
	}
}

func BenchmarkSorted_1000(b *testing.B) {
	r := rand.New(rand.NewPCG(3, 4))
	src := make([]float64, 1000)
	for i := range src {
		src[i] = r.Float64() * 1000
	}
	buf := make([]float64, len(src))

	b.ResetTimer()
	for b.Loop() {
		copy(buf, src)
		Sorted(buf, 0.5, 0.95, 0.99)
	}
}
