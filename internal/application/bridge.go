package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// BridgeConfig names the subscription endpoints the supervisor wires up.
type BridgeConfig struct {
	TelemetryTopic string
	ControlPath    string
	OTAPath        string
}

// Bridge supervises the two external connections and routes their callbacks
// into the handlers. Broker reconnection is the broker client's job; the
// bridge only re-asserts its subscription and connectivity status from the
// OnConnect callback, which is safe to run on every reconnect.
type Bridge struct {
	broker    Broker
	store     Store
	telemetry *TelemetryHandler
	control   *ControlRelay
	ota       *OTARelay
	timers    *IdleTimerManager
	status    *StatusReporter
	cfg       BridgeConfig
	logger    *slog.Logger
}

func NewBridge(
	broker Broker,
	store Store,
	telemetry *TelemetryHandler,
	control *ControlRelay,
	ota *OTARelay,
	timers *IdleTimerManager,
	status *StatusReporter,
	cfg BridgeConfig,
	logger *slog.Logger,
) *Bridge {
	return &Bridge{
		broker:    broker,
		store:     store,
		telemetry: telemetry,
		control:   control,
		ota:       ota,
		timers:    timers,
		status:    status,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run connects both sides, attaches the store listeners and blocks until ctx
// is cancelled or a listener fails its initial attach. Teardown cancels all
// armed timers before the broker connection goes away, so no expiry fires
// into a dead connection.
func (b *Bridge) Run(ctx context.Context) error {
	b.broker.OnConnect(func() {
		b.logger.Info("broker connected", "telemetry_topic", b.cfg.TelemetryTopic)
		if err := b.broker.Subscribe(b.cfg.TelemetryTopic, b.telemetry.HandleMessage); err != nil {
			b.logger.Error("subscribing to telemetry", "topic", b.cfg.TelemetryTopic, "error", err)
			return
		}
		b.status.Report(context.Background(), true)
	})

	b.broker.OnConnectionLost(func(err error) {
		b.logger.Warn("broker connection lost", "error", err)
		b.status.Report(context.Background(), false)
	})

	if err := b.broker.Connect(ctx); err != nil {
		b.status.Report(context.Background(), false)
		return fmt.Errorf("connecting to broker: %w", err)
	}

	listenErr := make(chan error, 2)
	go func() {
		listenErr <- b.store.Listen(ctx, b.cfg.ControlPath, b.control.HandleEvent)
	}()
	go func() {
		listenErr <- b.store.Listen(ctx, b.cfg.OTAPath, b.ota.HandleEvent)
	}()

	b.logger.Info("bridge active",
		"control_path", b.cfg.ControlPath,
		"ota_path", b.cfg.OTAPath,
	)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("store listener: %w", err)
		}
	}

	b.logger.Info("shutting down bridge")
	b.timers.CancelAll()
	b.status.Report(context.Background(), false)
	b.broker.Disconnect()

	return runErr
}
