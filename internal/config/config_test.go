package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Cycle.Duration() != 600000*time.Millisecond {
		t.Errorf("cycle duration: got %v, want 10m", cfg.Cycle.Duration())
	}
	if cfg.Features.DeliveryTracking {
		t.Error("delivery tracking should default off")
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enviro-node.yaml")
	content := `
node:
  id: greenhouse-7
mqtt:
  broker: tcp://10.0.0.5:1883
cycle:
  duration_ms: 300000
features:
  delivery_tracking: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Node.ID != "greenhouse-7" {
		t.Errorf("node id: got %q, want greenhouse-7", cfg.Node.ID)
	}
	if cfg.MQTT.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.Cycle.Duration() != 5*time.Minute {
		t.Errorf("cycle duration: got %v, want 5m", cfg.Cycle.Duration())
	}
	if !cfg.Features.DeliveryTracking {
		t.Error("delivery_tracking should be enabled")
	}

	// Untouched sections keep their defaults.
	if cfg.Probe.Address != 0x76 {
		t.Errorf("probe address: got 0x%x, want 0x76", cfg.Probe.Address)
	}
	if cfg.Wake.Chip != "gpiochip0" {
		t.Errorf("wake chip: got %q, want gpiochip0", cfg.Wake.Chip)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty node id", "node:\n  id: \"\"\n"},
		{"zero cycle duration", "cycle:\n  duration_ms: 0\n"},
		{"negative force-send interval", "cycle:\n  force_send_interval: -1\n"},
		{"negative wake pin", "wake:\n  pin: -3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("node: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
