package domain

import (
	"sort"
	"strings"
)

// ControlEventKind tags the shape of a change event on the device-control
// subtree. The store delivers a relative path plus the new value; the path
// decides how much of the subtree the value replaces.
type ControlEventKind int

const (
	ControlUnrecognized ControlEventKind = iota
	ControlFullReplace                   // path "", value is the whole subtree
	ControlDeviceReplace                 // path "<key>", value is one device entry
	ControlFieldUpdate                   // path "<key>/<field>", value is the field
)

type ControlEvent struct {
	Kind   ControlEventKind
	Device string
	Field  string
	Value  any
}

// NormalizeControlEvent classifies a raw (relativePath, newValue) change
// event ahead of dispatch. Paths deeper than "<key>/<field>" and non-mapping
// full replaces are unrecognized, which downstream treats as a no-op.
func NormalizeControlEvent(path string, value any) ControlEvent {
	p := strings.Trim(path, "/")
	if p == "" {
		if _, ok := value.(map[string]any); ok {
			return ControlEvent{Kind: ControlFullReplace, Value: value}
		}
		return ControlEvent{Kind: ControlUnrecognized, Value: value}
	}

	parts := strings.Split(p, "/")
	switch len(parts) {
	case 1:
		if _, ok := value.(map[string]any); ok {
			return ControlEvent{Kind: ControlDeviceReplace, Device: parts[0], Value: value}
		}
		return ControlEvent{Kind: ControlUnrecognized, Device: parts[0], Value: value}
	case 2:
		return ControlEvent{Kind: ControlFieldUpdate, Device: parts[0], Field: parts[1], Value: value}
	default:
		return ControlEvent{Kind: ControlUnrecognized, Value: value}
	}
}

// DeviceStates resolves the event into (deviceKey, isOn) pairs. A full
// replace yields one pair per device entry, with a missing or non-boolean
// isOn read as false; pairs are ordered by key so replays are deterministic.
func (e ControlEvent) DeviceStates() []DeviceState {
	switch e.Kind {
	case ControlFullReplace:
		entries := e.Value.(map[string]any)
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		states := make([]DeviceState, 0, len(keys))
		for _, k := range keys {
			states = append(states, DeviceState{Key: k, IsOn: entryIsOn(entries[k])})
		}
		return states

	case ControlDeviceReplace:
		entry := e.Value.(map[string]any)
		if _, ok := entry["isOn"]; !ok {
			return nil
		}
		return []DeviceState{{Key: e.Device, IsOn: entryIsOn(e.Value)}}

	case ControlFieldUpdate:
		if e.Field != "isOn" {
			return nil
		}
		on, _ := e.Value.(bool)
		return []DeviceState{{Key: e.Device, IsOn: on}}

	default:
		return nil
	}
}

func entryIsOn(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	on, _ := m["isOn"].(bool)
	return on
}
