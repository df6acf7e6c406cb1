package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/session-agent/internal/core/ports"
)

// RealtimeStatus is the slice of the realtime client the readiness probe
// needs.
type RealtimeStatus interface {
	Connected() bool
}

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Checks the credential store before declaring the agent ready; the
// realtime channel state is reported but never fails the probe, since an
// anonymous session legitimately has no channel.
type ReadinessHandler struct {
	store    ports.CredentialStore
	realtime RealtimeStatus
}

func NewReadinessHandler(store ports.CredentialStore, realtime RealtimeStatus) *ReadinessHandler {
	return &ReadinessHandler{store: store, realtime: realtime}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status            string                      `json:"status"`
	Dependencies      map[string]dependencyStatus `json:"dependencies"`
	RealtimeConnected bool                        `json:"realtime_connected"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		deps["credential_store"] = dependencyStatus{Status: "down", Error: err.Error()}
		healthy = false
	} else {
		deps["credential_store"] = dependencyStatus{Status: "up"}
	}

	resp := readinessResponse{
		Status:            "ready",
		Dependencies:      deps,
		RealtimeConnected: h.realtime.Connected(),
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
