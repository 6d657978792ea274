package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"foodshare/pkg/metrics"
)

type HealthHandler struct {
	started time.Time
}

var healthHandler *HealthHandler

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		started: time.Now(),
	}
}

func SetupHealthHandler() {
	healthHandler = NewHealthHandler()
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Metrics exposes the Prometheus registry.
func (h *HealthHandler) Metrics(c echo.Context) error {
	metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
