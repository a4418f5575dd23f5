package agent

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/netutil"
	"github.com/idudko/storefront-latency/pkg/hash"
)

// DefaultRetryIntervals are the waits between attempts after a failed report.
var DefaultRetryIntervals = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// ErrRejected is returned when the server answers 4xx. Such reports are not
// retried since resending the same body cannot succeed.
var ErrRejected = errors.New("report rejected by server")

// Sender reports samples to the latency server.
type Sender struct {
	baseURL        string
	key            string
	localIP        string
	client         *http.Client
	retryIntervals []time.Duration
}

// NewSender creates a Sender for the server at address, which is either
// host:port or a full base URL. Bodies are signed when key is set.
func NewSender(address, key string) *Sender {
	localIP, err := netutil.GetLocalIP()
	if err != nil {
		log.Warn().Err(err).Msg("failed to determine local IP, X-Real-IP will not be sent")
	}
	return &Sender{
		baseURL:        baseURL(address),
		key:            key,
		localIP:        localIP,
		client:         &http.Client{Timeout: 30 * time.Second},
		retryIntervals: DefaultRetryIntervals,
	}
}

// SendBatch posts samples to /api/metrics/batch and returns the server's
// accept/reject counts.
func (s *Sender) SendBatch(ctx context.Context, samples []model.Sample) (model.IngestResult, error) {
	var result model.IngestResult
	err := s.withRetry(ctx, func() error {
		var err error
		result, err = s.post(ctx, "/api/metrics/batch", samples)
		return err
	})
	return result, err
}

// SendSample posts one sample to /api/metrics.
func (s *Sender) SendSample(ctx context.Context, sample model.Sample) error {
	return s.withRetry(ctx, func() error {
		_, err := s.post(ctx, "/api/metrics", sample)
		return err
	})
}

func (s *Sender) withRetry(ctx context.Context, send func() error) error {
	err := send()
	if err == nil || errors.Is(err, ErrRejected) {
		return err
	}

	for _, interval := range s.retryIntervals {
		select {
		case <-time.After(interval):
			err = send()
			if err == nil || errors.Is(err, ErrRejected) {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

func (s *Sender) post(ctx context.Context, path string, payload any) (model.IngestResult, error) {
	var result model.IngestResult

	data, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("failed to marshal samples: %w", err)
	}

	var b bytes.Buffer
	gw := gzip.NewWriter(&b)
	if _, err := gw.Write(data); err != nil {
		return result, fmt.Errorf("failed to write data to gzip writer: %w", err)
	}
	if err := gw.Close(); err != nil {
		return result, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	compressed := b.Bytes()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(compressed))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if s.localIP != "" {
		req.Header.Set("X-Real-IP", s.localIP)
	}
	if s.key != "" {
		req.Header.Set(hash.Header, hash.Sign(compressed, s.key))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return result, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return result, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if strings.HasSuffix(path, "/batch") {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return result, fmt.Errorf("failed to decode ingest result: %w", err)
		}
	}
	return result, nil
}

func baseURL(address string) string {
	address = strings.TrimSuffix(address, "/")
	if strings.Contains(address, "://") {
		return address
	}
	return "http://" + address
}
