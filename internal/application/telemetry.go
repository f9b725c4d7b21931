package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wattbridge/internal/domain"
)

// TelemetryConfig carries the derived-metric tuning for the ingest handler.
type TelemetryConfig struct {
	LivePath           string
	OverageThresholdKw float64
	CostPerKwh         float64
	MilestoneStepRs    float64
}

// TelemetryHandler consumes device telemetry from the broker, mirrors each
// reading into the live store path and computes the derived overage and
// billing-milestone alerts. One bad message never blocks the next: parse
// failures are logged and the message discarded.
type TelemetryHandler struct {
	session *MeterSession
	store   Store
	alerts  *AlertEmitter
	cfg     TelemetryConfig
	logger  *slog.Logger
}

func NewTelemetryHandler(session *MeterSession, store Store, alerts *AlertEmitter, cfg TelemetryConfig, logger *slog.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		session: session,
		store:   store,
		alerts:  alerts,
		cfg:     cfg,
		logger:  logger,
	}
}

// HandleMessage processes one raw telemetry message. Store and alert writes
// happen outside the session lock; a slow store write cannot stall the latch
// or accumulator updates of later messages.
func (h *TelemetryHandler) HandleMessage(topic string, payload []byte) {
	reading, err := domain.ParseTelemetry(payload)
	if err != nil {
		h.logger.Warn("discarding telemetry", "topic", topic, "error", err)
		return
	}

	h.logger.Debug("telemetry received", "topic", topic, "power_kw", reading.Power)

	ctx := context.Background()

	// Merge-update: fields absent from this reading keep their stored values.
	if err := h.store.Update(ctx, h.cfg.LivePath, reading.Fields); err != nil {
		h.logger.Error("writing live reading", "path", h.cfg.LivePath, "error", err)
	}

	if h.session.ApplyOverage(reading.Power, h.cfg.OverageThresholdKw) {
		h.alerts.Emit(ctx, domain.AlertCritical, "Power overage",
			fmt.Sprintf("Power draw %.3f kW exceeds the %.3f kW threshold", reading.Power, h.cfg.OverageThresholdKw))
	}

	milestone, cost, crossed := h.session.AccrueBilling(reading.Power, h.cfg.CostPerKwh, h.cfg.MilestoneStepRs, time.Now())
	if crossed {
		h.alerts.Emit(ctx, domain.AlertWarning, "Billing milestone",
			fmt.Sprintf("Session cost crossed Rs %.0f (now Rs %.2f)", milestone, cost))
	}
}
