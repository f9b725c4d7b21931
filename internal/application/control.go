package application

import (
	"log/slog"

	"wattbridge/internal/domain"
)

// ControlRelay consumes change events on the device-control subtree and
// republishes them as device commands. It is the sole writer of Device.IsOn
// and the sole trigger of idle-timer transitions. Events for a single device
// key are applied in delivery order; the store adapter invokes HandleEvent
// from one goroutine per subscription.
type ControlRelay struct {
	session *MeterSession
	broker  Broker
	timers  *IdleTimerManager
	logger  *slog.Logger
}

func NewControlRelay(session *MeterSession, broker Broker, timers *IdleTimerManager, logger *slog.Logger) *ControlRelay {
	return &ControlRelay{
		session: session,
		broker:  broker,
		timers:  timers,
		logger:  logger,
	}
}

// HandleEvent normalizes one (relativePath, newValue) change event and
// applies every resolved device state. Unrecognized shapes are expected
// during store reconciliation and dropped silently.
func (r *ControlRelay) HandleEvent(path string, data any) {
	event := domain.NormalizeControlEvent(path, data)
	states := event.DeviceStates()
	if len(states) == 0 {
		return
	}

	for _, st := range states {
		r.apply(st)
	}
}

func (r *ControlRelay) apply(st domain.DeviceState) {
	topic, ok := r.session.SetDeviceOn(st.Key, st.IsOn)
	if !ok {
		r.logger.Debug("control event for unknown device", "device", st.Key)
		return
	}

	payload := "0"
	if st.IsOn {
		payload = "1"
	}

	if err := r.broker.Publish(topic, 0, payload); err != nil {
		r.logger.Error("publishing device command", "device", st.Key, "topic", topic, "error", err)
	} else {
		r.logger.Info("device command published", "device", st.Key, "topic", topic, "payload", payload)
	}

	r.timers.OnDeviceState(st.Key, st.IsOn)
}
