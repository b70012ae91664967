package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"line-checkin/internal/version"
)

func (h *Handler) Healthz(c echo.Context) error {
	dbState := "not_configured"
	if h.db.Connected() {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			dbState = "error"
		} else {
			dbState = "ok"
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"time":    time.Now().Format(time.RFC3339),
		"db":      dbState,
	})
}
