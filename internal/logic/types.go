// Package logic contains the pure duty-cycle reporting policy of the node.
// This package has NO external dependencies (no sensor, radio, OS, or
// time.Sleep). All inputs are passed in as values so every policy path can
// be unit tested without hardware.
package logic

import "time"

// ChannelID identifies one independently tracked measured quantity.
type ChannelID int

const (
	Temperature ChannelID = iota
	Humidity

	numChannels = 2
)

// String returns the wire name of the channel.
func (c ChannelID) String() string {
	switch c {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	}
	return "unknown"
}

// ParseChannelID maps a wire name back to a ChannelID.
func ParseChannelID(s string) (ChannelID, bool) {
	switch s {
	case "temperature":
		return Temperature, true
	case "humidity":
		return Humidity, true
	}
	return 0, false
}

// Channels lists all channel IDs in evaluation order.
func Channels() []ChannelID {
	return []ChannelID{Temperature, Humidity}
}

// Compiled defaults. NodeConfig resets to these on every boot; the two
// adjustable parameters may be overwritten by the remote configuration
// channel at run time.
const (
	DefaultCycleDuration     = 600000 * time.Millisecond
	DefaultForceSendInterval = 3

	// ResetAfterCycles is the watchdog restart threshold. Constant, never
	// remotely adjustable.
	ResetAfterCycles = 72

	// LowBatteryThresholdPercent is the state-of-charge below which a
	// reading counts toward the low-battery streak.
	LowBatteryThresholdPercent = 10.0

	// LowBatteryStreak is the number of consecutive low readings required
	// to latch the low-battery event.
	LowBatteryStreak = 3
)
