package application_test

import (
	"fmt"
	"testing"

	"wattbridge/internal/application"
)

const otaPath = "Devices/METER001/ota"

func newOTARelay(store *fakeStore, broker *fakeBroker) *application.OTARelay {
	alerts := application.NewAlertEmitter(store, "Alerts/notifications", testLogger())
	return application.NewOTARelay(broker, store, alerts, "esp32/ota", otaPath, testLogger())
}

func TestOTARelay_Trigger(t *testing.T) {
	store := newFakeStore()
	broker := newFakeBroker()
	relay := newOTARelay(store, broker)

	relay.HandleEvent("", map[string]any{"trigger": true})

	published := broker.published()
	if len(published) != 1 {
		t.Fatalf("publishes = %d, want 1", len(published))
	}
	if published[0] != (brokerPublish{topic: "esp32/ota", qos: 1, payload: "1"}) {
		t.Errorf("publish = %+v, want QoS-1 \"1\" to esp32/ota", published[0])
	}

	resets := store.setsTo(otaPath)
	if len(resets) != 1 {
		t.Fatalf("flag resets = %d, want 1", len(resets))
	}
	flag, ok := resets[0].value.(map[string]any)
	if !ok || flag["trigger"] != false {
		t.Errorf("flag reset wrote %v, want trigger:false", resets[0].value)
	}

	if got := len(store.alertsOfType("info")); got != 1 {
		t.Errorf("info alerts = %d, want 1", got)
	}
}

func TestOTARelay_RedeliveryIsSafe(t *testing.T) {
	store := newFakeStore()
	broker := newFakeBroker()
	relay := newOTARelay(store, broker)

	relay.HandleEvent("", map[string]any{"trigger": true})
	relay.HandleEvent("", map[string]any{"trigger": true})

	if got := len(broker.published()); got != 2 {
		t.Fatalf("publishes = %d, want 2 (re-delivery republishes)", got)
	}
	if got := len(store.setsTo(otaPath)); got != 2 {
		t.Fatalf("flag resets = %d, want 2", got)
	}
}

func TestOTARelay_IgnoredShapes(t *testing.T) {
	store := newFakeStore()
	broker := newFakeBroker()
	relay := newOTARelay(store, broker)

	relay.HandleEvent("", map[string]any{"trigger": false}) // flag-reset echo
	relay.HandleEvent("", nil)
	relay.HandleEvent("", true)
	relay.HandleEvent("trigger", false)
	relay.HandleEvent("version", "1.2.3")

	if got := len(broker.published()); got != 0 {
		t.Fatalf("publishes = %d, want 0", got)
	}
	if got := len(store.setsTo(otaPath)); got != 0 {
		t.Fatalf("flag resets = %d, want 0", got)
	}
}

func TestOTARelay_TriggerChildWrite(t *testing.T) {
	store := newFakeStore()
	broker := newFakeBroker()
	relay := newOTARelay(store, broker)

	relay.HandleEvent("trigger", true)

	if got := len(broker.published()); got != 1 {
		t.Fatalf("publishes = %d, want 1", got)
	}
}

func TestOTARelay_PublishFailureLeavesFlagSet(t *testing.T) {
	store := newFakeStore()
	broker := newFakeBroker()
	broker.publishErr = fmt.Errorf("broker down")
	relay := newOTARelay(store, broker)

	relay.HandleEvent("", map[string]any{"trigger": true})

	if got := len(store.setsTo(otaPath)); got != 0 {
		t.Fatalf("flag resets = %d, want 0 when publish fails", got)
	}
	if got := len(store.alertsOfType("info")); got != 0 {
		t.Fatalf("info alerts = %d, want 0 when publish fails", got)
	}
}
