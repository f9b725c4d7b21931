package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wattbridge/internal/domain"
)

// IdleTimerManager owns one cancellable auto-off timer per device key.
// Turning a device on arms (or re-arms) its timer; turning it off, or a
// second "on" event, supersedes the armed timer so at most one exists per
// key. Expiry does not publish to the broker directly: it writes
// isOn:false to the device's control path, and the resulting change event
// drives the actual device command through the control relay.
//
// The timer table shares the session mutex with the rest of the per-meter
// state. A fire that wins the lock before its cancel proceeds to completion;
// a cancel that wins first makes the fire a no-op. Either way there is no
// double effect.
type IdleTimerManager struct {
	session     *MeterSession
	store       Store
	alerts      *AlertEmitter
	controlPath string
	duration    time.Duration
	logger      *slog.Logger

	timers map[string]*armedTimer
}

type armedTimer struct {
	timer     *time.Timer
	startedAt time.Time
}

func NewIdleTimerManager(session *MeterSession, store Store, alerts *AlertEmitter, controlPath string, duration time.Duration, logger *slog.Logger) *IdleTimerManager {
	return &IdleTimerManager{
		session:     session,
		store:       store,
		alerts:      alerts,
		controlPath: controlPath,
		duration:    duration,
		logger:      logger,
		timers:      make(map[string]*armedTimer),
	}
}

// OnDeviceState is invoked by the control relay after every resolved device
// state change. "On" arms a fresh timer, superseding any armed one; "off"
// just cancels.
func (m *IdleTimerManager) OnDeviceState(key string, on bool) {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()

	if current, ok := m.timers[key]; ok {
		current.timer.Stop()
		delete(m.timers, key)
	}

	if !on {
		return
	}

	at := &armedTimer{startedAt: time.Now()}
	at.timer = time.AfterFunc(m.duration, func() { m.fire(key, at) })
	m.timers[key] = at
	m.logger.Debug("idle timer armed", "device", key, "duration", m.duration)
}

func (m *IdleTimerManager) fire(key string, at *armedTimer) {
	m.session.mu.Lock()
	if m.timers[key] != at {
		// Superseded or cancelled while the expiry was being delivered.
		m.session.mu.Unlock()
		return
	}
	delete(m.timers, key)

	label := key
	if d, ok := m.session.devices[key]; ok && d.Label != "" {
		label = d.Label
	}
	m.session.mu.Unlock()

	m.logger.Info("idle auto-off", "device", key, "idle", m.duration)

	ctx := context.Background()
	path := m.controlPath + "/" + key + "/isOn"
	if err := m.store.Set(ctx, path, false); err != nil {
		m.logger.Error("writing auto-off state", "device", key, "error", err)
	}

	m.alerts.Emit(ctx, domain.AlertWarning, "Idle auto-off",
		fmt.Sprintf("%s was left on for %s and has been turned off automatically", label, m.duration))
}

// CancelAll disarms every timer. Called on shutdown so nothing fires into a
// torn-down broker connection.
func (m *IdleTimerManager) CancelAll() {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()

	for key, at := range m.timers {
		at.timer.Stop()
		delete(m.timers, key)
	}
}

// Armed reports whether a timer is currently armed for key.
func (m *IdleTimerManager) Armed(key string) bool {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()
	_, ok := m.timers[key]
	return ok
}
