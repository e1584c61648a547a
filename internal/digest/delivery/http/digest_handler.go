package http

import (
	"context"
	"errors"
	"net/http"

	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/digest/service"
	"ticker-digest/pkg/logger"
	"ticker-digest/pkg/utils"

	"github.com/labstack/echo/v4"
)

// DigestHandler handles HTTP requests for digest runs.
type DigestHandler struct {
	runner service.DigestRunner
	logger *logger.Logger
	runCtx context.Context
}

// NewDigestHandler creates a new DigestHandler. Runs triggered over HTTP use runCtx,
// so they outlive the request but stop with the process.
func NewDigestHandler(runCtx context.Context, runner service.DigestRunner, logger *logger.Logger) *DigestHandler {
	return &DigestHandler{runner: runner, logger: logger, runCtx: runCtx}
}

// RegisterRoutes registers the digest routes to the Echo group.
func (h *DigestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/runs", h.TriggerRun)
	g.GET("/runs/last", h.GetLastRun)
}

// Health reports liveness and whether a run is active.
func (h *DigestHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "run_in_progress": h.runner.InProgress()})
}

// TriggerRun starts a digest run in the background.
func (h *DigestHandler) TriggerRun(c echo.Context) error {
	if h.runner.InProgress() {
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrRunInProgress.Error()})
	}

	utils.GoSafe(h.logger, func() {
		if _, err := h.runner.Run(h.runCtx); err != nil {
			if errors.Is(err, service.ErrRunInProgress) || errors.Is(err, repository.ErrLockHeld) {
				h.logger.Warn("Manual digest run skipped", logger.ErrorField(err))
				return
			}
			h.logger.Error("Manual digest run failed", logger.ErrorField(err))
		}
	})

	return c.JSON(http.StatusAccepted, echo.Map{"status": "started"})
}

// GetLastRun returns the stats of the most recent completed run.
func (h *DigestHandler) GetLastRun(c echo.Context) error {
	stats, ok := h.runner.LastRun()
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no digest run has completed yet"})
	}
	return c.JSON(http.StatusOK, stats)
}
