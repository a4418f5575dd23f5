package export

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultNATSSubject is the subject samples are published on.
const DefaultNATSSubject = "metrics.samples"

// NATSObserver publishes samples as JSON messages on a NATS subject.
type NATSObserver struct {
	nc      *nats.Conn
	subject string
}

// NewNATSObserver connects to natsURL. Publishing is fire-and-forget; the
// client buffers messages while reconnecting.
func NewNATSObserver(natsURL, subject string) (*NATSObserver, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("storefront-latency"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSObserver{nc: nc, subject: subject}, nil
}

func (o *NATSObserver) Name() string { return "nats" }

func (o *NATSObserver) Notify(_ context.Context, e Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	if err := o.nc.Publish(o.subject, data); err != nil {
		return fmt.Errorf("failed to publish sample: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (o *NATSObserver) Close() error {
	return o.nc.Drain()
}
