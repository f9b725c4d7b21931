package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wattbridge/config"
	"wattbridge/internal/application"
	"wattbridge/internal/domain"
	"wattbridge/internal/infra/firebase"
	"wattbridge/internal/infra/mqtt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to env file (optional)")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading env file", "path", *envPath, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	store, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		logger.Error("initializing firebase", "error", err)
		os.Exit(1)
	}

	broker := mqtt.NewClient(mqtt.Config{
		Host:     cfg.Broker.Host,
		Port:     cfg.Broker.Port,
		Username: cfg.Broker.Username,
		Password: cfg.Broker.Password,
		ClientID: cfg.Broker.ClientID,
		TLS:      cfg.Broker.TLS,
	})

	idleAutoOff, err := time.ParseDuration(cfg.Meter.IdleAutoOff)
	if err != nil {
		logger.Warn("invalid idle auto-off duration, using default", "error", err, "value", cfg.Meter.IdleAutoOff)
		idleAutoOff = 120 * time.Second
	}

	devices := make([]domain.Device, 0, len(cfg.Devices))
	for key, dc := range cfg.Devices {
		label := dc.Label
		if label == "" {
			label = key
		}
		devices = append(devices, domain.Device{Key: key, Label: label, ControlTopic: dc.Topic})
	}

	meterID := cfg.Meter.ID
	livePath := "EnergyReadings/live/" + meterID
	controlPath := "Devices/" + meterID + "/controls"
	otaPath := "Devices/" + meterID + "/ota"
	alertsPath := "Alerts/notifications"
	statusPath := "Bridge/status"

	session := application.NewMeterSession(meterID, devices, time.Now())
	alerts := application.NewAlertEmitter(store, alertsPath, logger)
	status := application.NewStatusReporter(store, statusPath,
		fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port), logger)
	timers := application.NewIdleTimerManager(session, store, alerts, controlPath, idleAutoOff, logger)

	telemetry := application.NewTelemetryHandler(session, store, alerts, application.TelemetryConfig{
		LivePath:           livePath,
		OverageThresholdKw: cfg.Meter.OverageThresholdKw,
		CostPerKwh:         cfg.Meter.CostPerKwh,
		MilestoneStepRs:    cfg.Meter.MilestoneStep,
	}, logger)
	control := application.NewControlRelay(session, broker, timers, logger)
	ota := application.NewOTARelay(broker, store, alerts, cfg.Meter.OTATopic, otaPath, logger)

	bridge := application.NewBridge(broker, store, telemetry, control, ota, timers, status,
		application.BridgeConfig{
			TelemetryTopic: cfg.Meter.TelemetryTopic,
			ControlPath:    controlPath,
			OTAPath:        otaPath,
		}, logger)

	logger.Info("starting wattbridge",
		"meter", meterID,
		"broker", cfg.Broker.Host,
		"devices", len(devices),
	)

	if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bridge error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
