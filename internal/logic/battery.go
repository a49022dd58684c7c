package logic

import "math"

// BatteryStatus is the outcome of a battery observation.
type BatteryStatus int

const (
	BatteryNormal BatteryStatus = iota
	BatteryLow
)

// String returns a readable name for the status.
func (s BatteryStatus) String() string {
	if s == BatteryLow {
		return "LOW"
	}
	return "NORMAL"
}

// BatteryMonitor smooths noisy low-battery readings into a single latched
// low-battery event. A single reading below the threshold is not trusted; the
// monitor requires LowBatteryStreak consecutive low readings before emitting
// BatteryLow, so a noisy cell measurement cannot shut the node down on its
// own while a genuinely dying cell still halts the radio and sensor promptly.
type BatteryMonitor struct {
	lowStreak uint8
}

// NewBatteryMonitor creates a monitor with an empty streak.
func NewBatteryMonitor() *BatteryMonitor {
	return &BatteryMonitor{}
}

// Observe feeds one state-of-charge reading (percent, 0-100) into the
// monitor. Any reading at or above the threshold resets the streak. The
// LowBatteryStreak-th consecutive low reading returns BatteryLow exactly once
// and resets the streak; the caller is expected to report an explicit empty
// battery level and enter the indefinite low-battery suspend.
func (m *BatteryMonitor) Observe(levelPercent float64) BatteryStatus {
	if levelPercent >= LowBatteryThresholdPercent {
		m.lowStreak = 0
		return BatteryNormal
	}

	if m.lowStreak < math.MaxUint8 {
		m.lowStreak++
	}

	if m.lowStreak >= LowBatteryStreak {
		m.lowStreak = 0
		return BatteryLow
	}
	return BatteryNormal
}

// Streak returns the current count of consecutive low readings.
func (m *BatteryMonitor) Streak() uint8 {
	return m.lowStreak
}
