package application

import (
	"context"
	"log/slog"
	"strings"

	"wattbridge/internal/domain"
)

// OTARelay watches the firmware-trigger flag and relays it to the device as
// a one-shot "begin update" command, published at QoS 1. After a successful
// publish the flag is reset to false; a failed reset is only logged, since a
// stuck flag merely risks a duplicate publish on re-delivery, which the
// device tolerates.
type OTARelay struct {
	broker   Broker
	store    Store
	alerts   *AlertEmitter
	topic    string
	flagPath string
	logger   *slog.Logger
}

func NewOTARelay(broker Broker, store Store, alerts *AlertEmitter, topic, flagPath string, logger *slog.Logger) *OTARelay {
	return &OTARelay{
		broker:   broker,
		store:    store,
		alerts:   alerts,
		topic:    topic,
		flagPath: flagPath,
		logger:   logger,
	}
}

func (r *OTARelay) HandleEvent(path string, data any) {
	if !triggered(path, data) {
		return
	}

	r.logger.Info("firmware update triggered", "topic", r.topic)

	if err := r.broker.Publish(r.topic, 1, "1"); err != nil {
		// Leave the flag set so the next re-delivery retries the publish.
		r.logger.Error("publishing OTA command", "topic", r.topic, "error", err)
		return
	}

	ctx := context.Background()
	if err := r.store.Set(ctx, r.flagPath, map[string]any{"trigger": false}); err != nil {
		r.logger.Error("resetting OTA trigger flag", "path", r.flagPath, "error", err)
	}

	r.alerts.Emit(ctx, domain.AlertInfo, "Firmware update", "OTA update command sent to the meter")
}

// triggered accepts the flag either as a full-value replace of the mapping
// or as a direct write of its trigger child. Everything else, the flag-reset
// echo included, is ignored.
func triggered(path string, data any) bool {
	switch strings.Trim(path, "/") {
	case "":
		m, ok := data.(map[string]any)
		if !ok {
			return false
		}
		on, _ := m["trigger"].(bool)
		return on
	case "trigger":
		on, _ := data.(bool)
		return on
	default:
		return false
	}
}
