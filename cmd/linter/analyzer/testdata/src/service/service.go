package service

type Sample struct {
	LatencyMs float64
}

type Recorder struct{}

func (r *Recorder) Record(s Sample) error { return nil }

type SampleRecorder interface {
	Record(s Sample) error
}

// Window has a Record method but is not a recorder.
type Window struct{}

func (w *Window) Record(s Sample) error { return nil }

type Counter struct{}

func (c *Counter) Record(s Sample) {}
