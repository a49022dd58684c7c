package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string     `json:"event,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	NodeID          string     `json:"node_id"`
	Temperature     *float64   `json:"temperature,omitempty"`
	Humidity        *float64   `json:"humidity,omitempty"`
	BatteryPercent  float64    `json:"battery_percent"`
	CyclesSinceBoot uint16     `json:"cycles_since_boot"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
	StartTime       string     `json:"start_time"`
	Timestamp       string     `json:"timestamp"`
	Pending         AcksJSON   `json:"pending_acks"`
	Config          ConfigJSON `json:"config"`
}

// AcksJSON is the JSON representation of the pending-ack flags.
type AcksJSON struct {
	Temperature bool `json:"temperature"`
	Humidity    bool `json:"humidity"`
}

// ConfigJSON is the JSON representation of the held run-time parameters.
type ConfigJSON struct {
	CycleDurationMs   int64  `json:"cycle_duration_ms"`
	ForceSendInterval uint16 `json:"force_send_interval"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		NodeID:          snap.NodeID,
		Temperature:     snap.Temperature,
		Humidity:        snap.Humidity,
		BatteryPercent:  snap.BatteryPercent,
		CyclesSinceBoot: snap.CyclesSinceBoot,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		Pending: AcksJSON{
			Temperature: snap.PendingAckTemperature,
			Humidity:    snap.PendingAckHumidity,
		},
		Config: ConfigJSON{
			CycleDurationMs:   snap.CycleDuration.Milliseconds(),
			ForceSendInterval: snap.ForceSendInterval,
		},
	}
}

// FormatStatusEvent returns the JSON status snapshot for a lifecycle event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
