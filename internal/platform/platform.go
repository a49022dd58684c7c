// Package platform provides the node's suspend and restart primitives with
// hardware abstraction. The real sleeper waits on a GPIO wake pin for the
// indefinite low-battery suspend; the real restarter hands the process back
// to the service supervisor.
package platform

import "time"

// Sleeper suspends the node between cycles.
type Sleeper interface {
	// SuspendFor blocks for the given duration.
	SuspendFor(d time.Duration)

	// SuspendUntilInterrupt blocks with no scheduled wake until a physical
	// interrupt arrives on the wake pin. Used only by the terminal
	// low-battery state.
	SuspendUntilInterrupt() error
}

// Restarter performs a full device restart. The core decides when to
// restart, never how.
type Restarter interface {
	RequestRestart(reason string)
}

// Restart reasons passed to RequestRestart.
const (
	RestartReasonWatchdog = "watchdog"
	RestartReasonRemote   = "remote"
)
