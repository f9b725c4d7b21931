package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Broker   BrokerConfig            `yaml:"broker"`
	Firebase FirebaseConfig          `yaml:"firebase"`
	Meter    MeterConfig             `yaml:"meter"`
	Devices  map[string]DeviceConfig `yaml:"devices"`
	Log      LogConfig               `yaml:"log"`
}

type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	TLS      bool   `yaml:"tls"`
}

type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	DatabaseURL     string `yaml:"database_url"`
}

type MeterConfig struct {
	ID                 string  `yaml:"id"`
	TelemetryTopic     string  `yaml:"telemetry_topic"`
	OTATopic           string  `yaml:"ota_topic"`
	OverageThresholdKw float64 `yaml:"overage_threshold_kw"`
	IdleAutoOff        string  `yaml:"idle_auto_off"`
	CostPerKwh         float64 `yaml:"cost_per_kwh"`
	MilestoneStep      float64 `yaml:"milestone_step"`
}

type DeviceConfig struct {
	Label string `yaml:"label"`
	Topic string `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Broker.Port == 0 {
		c.Broker.Port = 8883
		c.Broker.TLS = true
	}
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = "wattbridge"
	}
	if c.Meter.ID == "" {
		c.Meter.ID = "METER001"
	}
	if c.Meter.TelemetryTopic == "" {
		c.Meter.TelemetryTopic = "esp32/energy"
	}
	if c.Meter.OTATopic == "" {
		c.Meter.OTATopic = "esp32/ota"
	}
	if c.Meter.OverageThresholdKw == 0 {
		c.Meter.OverageThresholdKw = 0.5
	}
	if c.Meter.IdleAutoOff == "" {
		c.Meter.IdleAutoOff = "120s"
	}
	if c.Meter.CostPerKwh == 0 {
		c.Meter.CostPerKwh = 6.5
	}
	if c.Meter.MilestoneStep == 0 {
		c.Meter.MilestoneStep = 10
	}
	if len(c.Devices) == 0 {
		c.Devices = map[string]DeviceConfig{
			"LED 1":   {Topic: "app/led1"},
			"LED 2":   {Topic: "app/led2"},
			"LED 3":   {Topic: "app/led3"},
			"Motor 1": {Topic: "app/motor1"},
			"Motor 2": {Topic: "app/motor2"},
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
