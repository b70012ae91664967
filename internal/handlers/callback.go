package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"line-checkin/internal/checkin"
	"line-checkin/internal/line"
)

// Callback is the webhook endpoint. Signature failure, an unparseable
// envelope, and any handler error all map to a bare 400; the platform only
// retries on non-2xx and cannot use anything finer. The error kind is kept
// in the logs instead.
func (h *Handler) Callback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	sig := c.Request().Header.Get("X-Line-Signature")
	events, err := line.ParseWebhook(h.cfg.ChannelSecret, sig, body)
	if err != nil {
		LogStructured("warn", map[string]any{
			"event":      "line.webhook",
			"error_kind": errorKind(err),
			"error":      err.Error(),
		})
		return c.NoContent(http.StatusBadRequest)
	}

	hsum := sha256.Sum256(body)
	sum := hex.EncodeToString(hsum[:])
	ctx := c.Request().Context()

	failed := false
	for _, ev := range events {
		if err := h.dispatch(ctx, ev); err != nil {
			failed = true
			LogStructured("error", map[string]any{
				"event":      "line.webhook",
				"type":       eventKey(ev),
				"user_id":    ev.Source.UserID,
				"error_kind": errorKind(err),
				"error":      err.Error(),
			})
			_ = h.db.RecordDelivery(ctx, eventKey(ev), ev.Source.UserID, sum, "failed")
			continue
		}
		_ = h.db.RecordDelivery(ctx, eventKey(ev), ev.Source.UserID, sum, "processed")
	}
	if failed {
		return c.NoContent(http.StatusBadRequest)
	}
	return c.String(http.StatusOK, "OK")
}

// dispatch routes one event by content type. Everything that is neither the
// trigger word nor a location share is ignored, not an error.
func (h *Handler) dispatch(ctx context.Context, ev line.Event) error {
	if ev.Type != "message" || ev.Message == nil {
		return nil
	}
	switch ev.Message.Type {
	case "text":
		if strings.TrimSpace(ev.Message.Text) != checkin.TriggerWord {
			return nil
		}
		return h.recorder.HandleTrigger(ctx, ev.ReplyToken)
	case "location":
		return h.recorder.HandleLocation(ctx, checkin.LocationEvent{
			ReplyToken: ev.ReplyToken,
			UserID:     ev.Source.UserID,
			Address:    ev.Message.Address,
			Latitude:   ev.Message.Latitude,
			Longitude:  ev.Message.Longitude,
		})
	default:
		return nil
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, line.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, line.ErrMalformedPayload):
		return "malformed_payload"
	}
	var ue *checkin.UpstreamError
	if errors.As(err, &ue) {
		return string(ue.Upstream)
	}
	return "handler_failure"
}

func eventKey(ev line.Event) string {
	if ev.Message != nil {
		return "line.message." + ev.Message.Type
	}
	return "line." + ev.Type
}
