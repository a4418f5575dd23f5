package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/idudko/storefront-latency/pkg/hash"
)

// HTTPObserver posts each sample as JSON to a collector URL, retrying
// connection errors and 5xx responses.
type HTTPObserver struct {
	url    string
	key    string
	client *retryablehttp.Client
}

// NewHTTPObserver creates an observer posting to url. When key is set the
// body is signed with HMAC-SHA256 in the HashSHA256 header.
func NewHTTPObserver(url, key string) *HTTPObserver {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil

	return &HTTPObserver{
		url:    url,
		key:    key,
		client: client,
	}
}

func (o *HTTPObserver) Name() string { return "http" }

func (o *HTTPObserver) Notify(ctx context.Context, e Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.key != "" {
		req.Header.Set(hash.Header, hash.Sign(data, o.key))
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (o *HTTPObserver) Close() error {
	o.client.HTTPClient.CloseIdleConnections()
	return nil
}
