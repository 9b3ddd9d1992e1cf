package api

import (
	"net/http"
	"time"

	"github.com/snarg/tts-engine/internal/azure"
)

type HealthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Backends      map[string]int `json:"backends"`
	OpenSessions  int            `json:"open_sessions"`
	InFlightCalls int            `json:"in_flight_calls"`
}

type HealthHandler struct {
	broker    Synthesizer
	version   string
	startTime time.Time
}

func NewHealthHandler(broker Synthesizer, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{broker: broker, version: version, startTime: startTime}
}

// ServeHTTP reports per-backend catalog sizes and live session state. The
// service is degraded when an enabled backend has no catalog.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK

	backends := make(map[string]int)
	for _, kind := range []azure.Kind{azure.KindEdgeFree, azure.KindPreviewFree, azure.KindSubscription} {
		if !h.broker.Enabled(kind) {
			continue
		}
		cat, ok := h.broker.Catalog(kind)
		if !ok || cat.Len() == 0 {
			backends[kind.String()] = 0
			status = "degraded"
			continue
		}
		backends[kind.String()] = cat.Len()
	}
	if len(backends) == 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Backends:      backends,
		OpenSessions:  h.broker.OpenSessions(),
		InFlightCalls: h.broker.InFlightCalls(),
	})
}
