// Package handlers implements HTTP handlers for the marketplace tool gateway.
package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Prober checks that the marketplace answers.
type Prober interface {
	Health(ctx context.Context) (string, error)
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	prober Prober
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(p Prober) *HealthHandler {
	return &HealthHandler{prober: p}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if the marketplace health check succeeds, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if _, err := h.prober.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
