package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type DBPinger interface {
	Ping(ctx context.Context) error
}

type PingHandler struct {
	pinger DBPinger
}

// NewPingHandler creates the GET /ping handler. pinger may be nil when no
// archive database is configured.
func NewPingHandler(pinger DBPinger) *PingHandler {
	return &PingHandler{pinger: pinger}
}

func (h *PingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		log.Warn().Msg("ping failed: database not configured")
		http.Error(w, "Database not initialized", http.StatusInternalServerError)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("ping failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
