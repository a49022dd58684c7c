package logic

import (
	"math"
	"time"
)

// NodeConfig holds the two remotely adjustable run-time parameters. It is
// initialized from compiled defaults on every boot and never persisted
// across restarts.
type NodeConfig struct {
	// CycleDuration is the sleep between wake cycles.
	CycleDuration time.Duration

	// ForceSendInterval is the number of unchanged cycles after which a
	// value is transmitted anyway.
	ForceSendInterval uint16
}

// DefaultNodeConfig returns the compiled defaults.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		CycleDuration:     DefaultCycleDuration,
		ForceSendInterval: DefaultForceSendInterval,
	}
}

// SetCycleDuration applies a remote cycle-duration update. A zero or
// negative value is ignored and the held value is unchanged; no error is
// surfaced to the remote caller. Reports whether the update was applied.
func (c *NodeConfig) SetCycleDuration(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	c.CycleDuration = d
	return true
}

// SetForceSendInterval applies a remote force-send-interval update. Zero and
// negative values are ignored; values past the counter range clamp to its
// maximum. Reports whether the update was applied.
func (c *NodeConfig) SetForceSendInterval(n int) bool {
	if n <= 0 {
		return false
	}
	if n > math.MaxUint16 {
		n = math.MaxUint16
	}
	c.ForceSendInterval = uint16(n)
	return true
}
