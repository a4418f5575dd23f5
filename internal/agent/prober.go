package agent

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/idudko/storefront-latency/internal/model"
)

// maxBuffered bounds the samples held between reports. The oldest are
// discarded first when the server is unreachable for a long time.
const maxBuffered = 10000

// Prober issues GET requests against storefront pages and keeps the
// measured samples until they are drained for reporting.
type Prober struct {
	client  *http.Client
	targets []string
	now     func() time.Time

	mu      sync.Mutex
	samples []model.Sample
}

func NewProber(targets []string, timeout time.Duration) *Prober {
	return &Prober{
		client:  &http.Client{Timeout: timeout},
		targets: targets,
		now:     time.Now,
	}
}

// Probe requests every target once and buffers one sample per target.
func (p *Prober) Probe(ctx context.Context) {
	for _, target := range p.targets {
		if ctx.Err() != nil {
			return
		}
		p.add(p.measure(ctx, target))
	}
}

// measure times one GET of target. The body is read to completion so the
// latency covers the full response.
//
// A request that fails without a response is reported as 502 with the
// transport error, since the server only accepts real status codes.
func (p *Prober) measure(ctx context.Context, target string) model.Sample {
	sample := model.Sample{
		Endpoint: endpointOf(target),
		Method:   http.MethodGet,
	}

	start := p.now()
	status, err := p.get(ctx, target)
	finished := p.now()

	sample.TimestampMs = finished.UnixMilli()
	sample.LatencyMs = float64(finished.Sub(start)) / float64(time.Millisecond)
	sample.StatusCode = status
	if err != nil {
		sample.StatusCode = http.StatusBadGateway
		sample.Error = err.Error()
	} else if status >= model.ServerErrorThreshold {
		sample.Error = http.StatusText(status)
	}
	return sample
}

func (p *Prober) get(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func (p *Prober) add(s model.Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.samples) >= maxBuffered {
		p.samples = p.samples[1:]
	}
	p.samples = append(p.samples, s)
}

// Drain returns the buffered samples in probe order and empties the buffer.
func (p *Prober) Drain() []model.Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	samples := p.samples
	p.samples = nil
	return samples
}

// endpointOf returns the path of target, which is what the server groups
// samples by. Unparsable targets are used verbatim.
func endpointOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		if err == nil {
			return "/"
		}
		return target
	}
	return u.Path
}
