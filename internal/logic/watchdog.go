package logic

import "math"

// ResetCounter forces a full device restart after a bounded number of
// cycles, independent of all other state. The scheduled restart recovers the
// node from any wedged radio or sensor condition without external
// intervention, at the cost of interrupting an in-flight unacknowledged
// delivery (the restart clears all transient delivery state).
type ResetCounter struct {
	cyclesSinceBoot uint16
}

// NewResetCounter creates a counter at zero. Only an actual restart resets
// it.
func NewResetCounter() *ResetCounter {
	return &ResetCounter{}
}

// Tick records one completed cycle and reports whether the scheduled restart
// is due. Calls 1 through ResetAfterCycles-1 return false; the
// ResetAfterCycles-th call and every call after it return true, so a missed
// restart request cannot silently re-arm the counter.
func (c *ResetCounter) Tick() bool {
	if c.cyclesSinceBoot < math.MaxUint16 {
		c.cyclesSinceBoot++
	}
	return c.cyclesSinceBoot >= ResetAfterCycles
}

// CyclesSinceBoot returns the number of completed cycles since boot.
func (c *ResetCounter) CyclesSinceBoot() uint16 {
	return c.cyclesSinceBoot
}
