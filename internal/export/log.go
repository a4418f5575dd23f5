package export

import (
	"context"

	"github.com/rs/zerolog"
)

// LogObserver writes each sample as a structured log line tagged type=metric.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates an observer writing to logger.
// Pass log.Logger to use the process-wide logger.
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Name() string { return "log" }

// Notify never fails: zerolog drops lines its writer rejects.
func (o *LogObserver) Notify(_ context.Context, e Envelope) error {
	ev := o.logger.Info().
		Str("type", e.Type).
		Int64("timestamp", e.TimestampMs).
		Str("endpoint", e.Endpoint).
		Str("method", e.Method).
		Int("status", e.StatusCode).
		Float64("latencyMs", e.LatencyMs)

	if len(e.Params) > 0 {
		params := zerolog.Dict()
		for k, v := range e.Params {
			params.Str(k, v)
		}
		ev = ev.Dict("params", params)
	}
	if e.Error != "" {
		ev = ev.Str("error", e.Error)
	}
	ev.Msg("request sample")
	return nil
}
