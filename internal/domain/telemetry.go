package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload marks telemetry messages that cannot be folded into the
// live meter state: not a JSON object, or missing a numeric "power" field.
var ErrMalformedPayload = errors.New("malformed telemetry payload")

// TelemetryReading is one decoded telemetry message. Fields carries every
// field of the original payload (power included) so unknown sensor fields
// pass through to the store untouched.
type TelemetryReading struct {
	Power  float64
	Fields map[string]any
}

func ParseTelemetry(payload []byte) (*TelemetryReading, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	raw, ok := fields["power"]
	if !ok {
		return nil, fmt.Errorf("%w: missing power field", ErrMalformedPayload)
	}

	power, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: power is %T, want number", ErrMalformedPayload, raw)
	}

	return &TelemetryReading{Power: power, Fields: fields}, nil
}
