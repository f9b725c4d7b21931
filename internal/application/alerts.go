package application

import (
	"context"
	"log/slog"
	"time"

	"wattbridge/internal/domain"
)

// AlertEmitter appends alert records to the shared alert log. The store
// assigns record ids, so the emitter itself is stateless. Emit failures are
// logged and swallowed: alerting is advisory and must never stall telemetry
// or control processing.
type AlertEmitter struct {
	store  Store
	path   string
	logger *slog.Logger
}

func NewAlertEmitter(store Store, path string, logger *slog.Logger) *AlertEmitter {
	return &AlertEmitter{store: store, path: path, logger: logger}
}

func (e *AlertEmitter) Emit(ctx context.Context, typ domain.AlertType, title, message string) {
	record := domain.Alert{
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		IsRead:    false,
	}

	id, err := e.store.Push(ctx, e.path, record)
	if err != nil {
		e.logger.Error("appending alert", "type", typ, "title", title, "error", err)
		return
	}
	e.logger.Info("alert emitted", "id", id, "type", typ, "title", title)
}
