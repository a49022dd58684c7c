// Package status provides a thread-safe snapshot of node state. Snapshots
// feed lifecycle event payloads and debug logging.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/enviro-node/internal/logic"
)

// Snapshot is a point-in-time view of node state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	NodeID    string
	StartTime time.Time
	Now       time.Time

	CyclesSinceBoot uint16

	// Last reported values; nil until the channel's first send.
	Temperature *float64
	Humidity    *float64

	BatteryPercent float64

	PendingAckTemperature bool
	PendingAckHumidity    bool

	CycleDuration     time.Duration
	ForceSendInterval uint16
}

// Uptime returns the duration since the node booted.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable node state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker for the given node.
func NewTracker(nodeID string, startTime time.Time) *Tracker {
	return &Tracker{
		snap: Snapshot{
			NodeID:            nodeID,
			StartTime:         startTime,
			CycleDuration:     logic.DefaultCycleDuration,
			ForceSendInterval: logic.DefaultForceSendInterval,
		},
		now: time.Now,
	}
}

// SetReported records the last transmitted value for a channel.
func (t *Tracker) SetReported(ch logic.ChannelID, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value := v
	switch ch {
	case logic.Temperature:
		t.snap.Temperature = &value
	case logic.Humidity:
		t.snap.Humidity = &value
	}
}

// SetBattery records the last observed state of charge.
func (t *Tracker) SetBattery(levelPercent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.BatteryPercent = levelPercent
}

// RecordCycle updates the per-cycle counters, pending-ack flags and held
// configuration.
func (t *Tracker) RecordCycle(cycles uint16, cfg logic.NodeConfig, pendingTemp, pendingHum bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.CyclesSinceBoot = cycles
	t.snap.CycleDuration = cfg.CycleDuration
	t.snap.ForceSendInterval = cfg.ForceSendInterval
	t.snap.PendingAckTemperature = pendingTemp
	t.snap.PendingAckHumidity = pendingHum
}

// Snapshot returns a copy of the current state with Now filled in.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.snap
	snap.Now = t.now()
	return snap
}
