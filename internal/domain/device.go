package domain

// Device is a controllable load attached to the meter. Key is the stable
// device name used in the shared store (e.g. "LED 1"); ControlTopic is the
// broker topic its on/off commands are published to.
type Device struct {
	Key          string
	Label        string
	ControlTopic string
	IsOn         bool
}

// DeviceState is a resolved (device, desired on/off) pair extracted from a
// control change event.
type DeviceState struct {
	Key  string
	IsOn bool
}
