package domain

type AlertType string

const (
	AlertInfo     AlertType = "info"
	AlertWarning  AlertType = "warning"
	AlertCritical AlertType = "critical"
)

// Alert is one append-only record in the shared alert log. The store assigns
// the record id on push; the bridge never mutates a record after creation.
type Alert struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      AlertType `json:"type"`
	Timestamp string    `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// ConnectivityStatus mirrors the bridge's own broker connectivity into the
// shared store, overwritten on every transition.
type ConnectivityStatus struct {
	Connected     bool   `json:"connected"`
	LastSeen      string `json:"lastSeen"`
	BrokerAddress string `json:"brokerAddress"`
}
