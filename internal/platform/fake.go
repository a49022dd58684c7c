package platform

import "time"

// FakeSleeper records suspensions instead of blocking.
type FakeSleeper struct {
	// Suspensions contains the durations passed to SuspendFor.
	Suspensions []time.Duration

	// InterruptWaits counts SuspendUntilInterrupt calls.
	InterruptWaits int

	// InterruptError, if set, will be returned by SuspendUntilInterrupt.
	InterruptError error
}

// SuspendFor records the duration and returns immediately.
func (f *FakeSleeper) SuspendFor(d time.Duration) {
	f.Suspensions = append(f.Suspensions, d)
}

// SuspendUntilInterrupt records the wait and returns immediately, as if the
// physical interrupt fired at once.
func (f *FakeSleeper) SuspendUntilInterrupt() error {
	f.InterruptWaits++
	return f.InterruptError
}

// FakeRestarter records restart requests.
type FakeRestarter struct {
	// Reasons contains the reasons passed to RequestRestart, in order.
	Reasons []string
}

// RequestRestart records the reason and returns, letting the caller observe
// the request instead of losing the process.
func (f *FakeRestarter) RequestRestart(reason string) {
	f.Reasons = append(f.Reasons, reason)
}
