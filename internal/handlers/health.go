package handlers

import (
	"net/http"

	"swaraj/internal/models"
	"swaraj/internal/version"

	"github.com/labstack/echo/v4"
)

// ModelStatus reports whether the model has finished loading.
type ModelStatus interface {
	Loaded() bool
}

// HealthHandler serves liveness and version information
type HealthHandler struct {
	status  ModelStatus
	backend string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(status ModelStatus, backend string) *HealthHandler {
	return &HealthHandler{status: status, backend: backend}
}

// Health always answers 200; model_loaded tells callers whether
// /transcribe is usable yet.
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:      "ok",
		ModelLoaded: h.status.Loaded(),
	})
}

// Version returns the build version and the configured backend
// GET /version
func (h *HealthHandler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, models.VersionResponse{
		Version: version.String(),
		Backend: h.backend,
	})
}
