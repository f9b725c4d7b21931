package application

import (
	"math"
	"sync"
	"time"

	"wattbridge/internal/domain"
)

// MeterSession owns all mutable per-meter state: the device table, the
// overage latch and the billing accumulator. Telemetry callbacks, control
// callbacks and timer expiries all run on independent goroutines, so every
// access goes through the session mutex; callers never hold it across a
// store or broker call.
type MeterSession struct {
	mu sync.Mutex

	meterID      string
	devices      map[string]*domain.Device
	sessionStart time.Time

	overageAlerted  bool
	accumulatedKwh  float64
	lastMilestoneRs float64
}

func NewMeterSession(meterID string, devices []domain.Device, sessionStart time.Time) *MeterSession {
	table := make(map[string]*domain.Device, len(devices))
	for i := range devices {
		d := devices[i]
		table[d.Key] = &d
	}
	return &MeterSession{
		meterID:      meterID,
		devices:      table,
		sessionStart: sessionStart,
	}
}

func (s *MeterSession) MeterID() string { return s.meterID }

// Device returns a snapshot of the device entry for key.
func (s *MeterSession) Device(key string) (domain.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[key]
	if !ok {
		return domain.Device{}, false
	}
	return *d, true
}

// SetDeviceOn records the device's desired state and returns its control
// topic. The control relay is the sole caller.
func (s *MeterSession) SetDeviceOn(key string, on bool) (topic string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, found := s.devices[key]
	if !found {
		return "", false
	}
	d.IsOn = on
	return d.ControlTopic, true
}

// ApplyOverage advances the edge-triggered overage latch for one reading and
// reports whether a critical alert is due. The latch sets on the first
// reading above threshold and rearms, silently, on the first reading at or
// below it.
func (s *MeterSession) ApplyOverage(power, thresholdKw float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if power <= thresholdKw {
		s.overageAlerted = false
		return false
	}
	if s.overageAlerted {
		return false
	}
	s.overageAlerted = true
	return true
}

// AccrueBilling projects the session cost from the latest reading and
// reports whether a new milestone was crossed. The projection uses the
// instantaneous power over the whole elapsed session, matching the meter
// firmware's own display; milestones are monotonically non-decreasing
// within a session.
func (s *MeterSession) AccrueBilling(power, costPerKwh, stepRs float64, now time.Time) (milestone, cost float64, crossed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsedHours := now.Sub(s.sessionStart).Hours()
	s.accumulatedKwh = power * elapsedHours
	cost = s.accumulatedKwh * costPerKwh

	milestone = math.Floor(cost/stepRs) * stepRs
	if milestone > s.lastMilestoneRs && milestone > 0 {
		s.lastMilestoneRs = milestone
		return milestone, cost, true
	}
	return milestone, cost, false
}
