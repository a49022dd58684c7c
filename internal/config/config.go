// Package config loads the node's on-disk configuration. Values here are
// deployment settings (broker, node identity, wiring); the remotely
// adjustable run-time parameters live in internal/logic and always reset to
// their compiled defaults on boot.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/enviro-node/internal/logic"
)

// Config represents the node configuration file.
type Config struct {
	Node     NodeConfig    `yaml:"node"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
	Probe    ProbeConfig   `yaml:"probe"`
	Battery  BatteryConfig `yaml:"battery"`
	Wake     WakeConfig    `yaml:"wake"`
	Cycle    CycleConfig   `yaml:"cycle"`
	Features FeatureConfig `yaml:"features"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID string `yaml:"id"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
}

// ProbeConfig contains the sensor bus wiring.
type ProbeConfig struct {
	Bus     string `yaml:"bus"`     // "" selects the platform default I2C bus
	Address uint16 `yaml:"address"` // I2C address
}

// BatteryConfig names the power_supply the charge level is read from.
type BatteryConfig struct {
	Supply string `yaml:"supply"`
}

// WakeConfig contains the wake-interrupt pin wiring.
type WakeConfig struct {
	Chip string `yaml:"chip"`
	Pin  int    `yaml:"pin"`
}

// CycleConfig contains boot-time defaults for the run-time parameters.
// The duration is in milliseconds to match the wire units of remote updates.
type CycleConfig struct {
	DurationMs        int64 `yaml:"duration_ms"`
	ForceSendInterval int   `yaml:"force_send_interval"`
}

// Duration returns the configured cycle duration.
func (c CycleConfig) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// FeatureConfig selects which optional capabilities are assembled into the
// scheduler.
type FeatureConfig struct {
	RemoteConfig     bool `yaml:"remote_config"`
	DeliveryTracking bool `yaml:"delivery_tracking"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Node: NodeConfig{ID: "node1"},
		MQTT: MQTTConfig{Broker: "tcp://192.168.1.200:1883"},
		Probe: ProbeConfig{
			Bus:     "",
			Address: 0x76,
		},
		Battery: BatteryConfig{Supply: "BAT0"},
		Wake: WakeConfig{
			Chip: "gpiochip0",
			Pin:  4,
		},
		Cycle: CycleConfig{
			DurationMs:        logic.DefaultCycleDuration.Milliseconds(),
			ForceSendInterval: logic.DefaultForceSendInterval,
		},
		Features: FeatureConfig{
			RemoteConfig:     true,
			DeliveryTracking: false,
		},
	}
}

// Load reads the configuration file at path, layered over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Node.ID == "" {
		return fmt.Errorf("node.id must not be empty")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must not be empty")
	}
	if c.Cycle.DurationMs <= 0 {
		return fmt.Errorf("cycle.duration_ms must be positive, got %d", c.Cycle.DurationMs)
	}
	if c.Cycle.ForceSendInterval <= 0 {
		return fmt.Errorf("cycle.force_send_interval must be positive, got %d", c.Cycle.ForceSendInterval)
	}
	if c.Wake.Pin < 0 {
		return fmt.Errorf("wake.pin must not be negative, got %d", c.Wake.Pin)
	}
	return nil
}
