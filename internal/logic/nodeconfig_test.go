package logic

import (
	"math"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultNodeConfig()
	if cfg.CycleDuration != 600000*time.Millisecond {
		t.Errorf("cycle duration: got %v, want 10m", cfg.CycleDuration)
	}
	if cfg.ForceSendInterval != 3 {
		t.Errorf("force-send interval: got %d, want 3", cfg.ForceSendInterval)
	}
}

func TestSetCycleDuration(t *testing.T) {
	cfg := DefaultNodeConfig()

	if !cfg.SetCycleDuration(30 * time.Second) {
		t.Error("positive duration should be applied")
	}
	if cfg.CycleDuration != 30*time.Second {
		t.Errorf("cycle duration: got %v, want 30s", cfg.CycleDuration)
	}

	// Zero and negative values are silently ignored.
	if cfg.SetCycleDuration(0) {
		t.Error("zero duration should be rejected")
	}
	if cfg.SetCycleDuration(-time.Second) {
		t.Error("negative duration should be rejected")
	}
	if cfg.CycleDuration != 30*time.Second {
		t.Errorf("rejected update changed held value: got %v", cfg.CycleDuration)
	}
}

func TestSetForceSendInterval(t *testing.T) {
	cfg := DefaultNodeConfig()

	if !cfg.SetForceSendInterval(6) {
		t.Error("positive interval should be applied")
	}
	if cfg.ForceSendInterval != 6 {
		t.Errorf("interval: got %d, want 6", cfg.ForceSendInterval)
	}

	if cfg.SetForceSendInterval(0) {
		t.Error("zero interval should be rejected")
	}
	if cfg.SetForceSendInterval(-2) {
		t.Error("negative interval should be rejected")
	}
	if cfg.ForceSendInterval != 6 {
		t.Errorf("rejected update changed held value: got %d", cfg.ForceSendInterval)
	}

	// Values past the counter range clamp instead of wrapping.
	if !cfg.SetForceSendInterval(math.MaxUint16 + 5) {
		t.Error("oversized interval should still be applied")
	}
	if cfg.ForceSendInterval != math.MaxUint16 {
		t.Errorf("interval: got %d, want %d", cfg.ForceSendInterval, uint16(math.MaxUint16))
	}
}

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		in   string
		want ChannelID
		ok   bool
	}{
		{"temperature", Temperature, true},
		{"humidity", Humidity, true},
		{"pressure", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseChannelID(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseChannelID(%q): got (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
