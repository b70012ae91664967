package handlers

import (
	"github.com/labstack/echo/v4"

	"line-checkin/internal/checkin"
	"line-checkin/internal/store"
	"line-checkin/pkg/config"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, rec *checkin.Recorder, db *store.DB) {
	e.Use(RequestID())
	e.Use(StructuredLogger())
	e.Use(Recover())

	h := &Handler{cfg: cfg, recorder: rec, db: db}

	e.GET("/healthz", h.Healthz)
	e.POST("/callback", h.Callback)
}

type Handler struct {
	cfg      config.Config
	recorder *checkin.Recorder
	db       *store.DB
}
