package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/idudko/storefront-latency/internal/service"
)

// ExportStats reports the state of the sample export pipeline.
type ExportStats interface {
	Queued() uint64
	Dropped() uint64
}

// Health is the GET /healthz response body.
type Health struct {
	Status         string  `json:"status"`
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	WindowSize     int     `json:"windowSize"`
	WindowCapacity int     `json:"windowCapacity"`
	ExportQueued   uint64  `json:"exportQueued"`
	ExportDropped  uint64  `json:"exportDropped"`
	HostMemoryUsed float64 `json:"hostMemoryUsedPercent,omitempty"`
	HostCPUUsed    float64 `json:"hostCpuUsedPercent,omitempty"`
}

type HealthHandler struct {
	recorder *service.Recorder
	export   ExportStats
	started  time.Time
}

// NewHealthHandler creates the GET /healthz handler. export may be nil.
func NewHealthHandler(recorder *service.Recorder, export ExportStats) *HealthHandler {
	return &HealthHandler{recorder: recorder, export: export, started: time.Now()}
}

// HealthHandler always answers 200 while the process serves requests. Host
// statistics are best effort and omitted when they cannot be read.
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()

	resp := Health{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(h.started).Seconds()),
		WindowSize:     h.recorder.Len(),
		WindowCapacity: h.recorder.Capacity(),
	}
	if h.export != nil {
		resp.ExportQueued = h.export.Queued()
		resp.ExportDropped = h.export.Dropped()
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.HostMemoryUsed = vm.UsedPercent
	} else {
		log.Debug().Err(err).Msg("failed to read host memory")
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		resp.HostCPUUsed = percents[0]
	} else if err != nil {
		log.Debug().Err(err).Msg("failed to read host cpu")
	}

	writeJSON(w, http.StatusOK, resp)
}
