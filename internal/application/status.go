package application

import (
	"context"
	"log/slog"
	"time"

	"wattbridge/internal/domain"
)

// StatusReporter overwrites the bridge's own connectivity record in the
// shared store on every broker connect/disconnect transition.
type StatusReporter struct {
	store         Store
	path          string
	brokerAddress string
	logger        *slog.Logger
}

func NewStatusReporter(store Store, path, brokerAddress string, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{store: store, path: path, brokerAddress: brokerAddress, logger: logger}
}

func (r *StatusReporter) Report(ctx context.Context, connected bool) {
	status := domain.ConnectivityStatus{
		Connected:     connected,
		LastSeen:      time.Now().UTC().Format(time.RFC3339),
		BrokerAddress: r.brokerAddress,
	}
	if err := r.store.Set(ctx, r.path, status); err != nil {
		r.logger.Error("writing connectivity status", "connected", connected, "error", err)
	}
}
