package logic

import "math"

// channelState tracks reporting history for a single channel.
type channelState struct {
	// Last value actually transmitted. NaN until the first send, which
	// also makes the inequality comparison true on the first sample.
	lastReported float64

	// Cycles elapsed since the last send. Saturates, never wraps.
	cyclesSinceReport uint16
}

// Reporter decides, per channel, whether a freshly sampled value is worth
// transmitting. A value is sent when it differs from the last reported value
// (exact floating-point comparison with no tolerance: sensor jitter triggers a
// send rather than masking a real change), when the value has been unchanged
// for the force-send interval, or when the previous send is still
// unacknowledged (retry-aware assembly only).
type Reporter struct {
	channels   [numChannels]channelState
	retryAware bool
}

// NewReporter creates a reporter with cold-start bias: every channel's
// unchanged-cycle counter starts pre-saturated at forceSendInterval so the
// first cycle after boot always sends, even if the sampled value happens to
// equal the sentinel. retryAware selects the post-send counter baseline used
// by the delivery-tracking assembly.
func NewReporter(forceSendInterval uint16, retryAware bool) *Reporter {
	r := &Reporter{retryAware: retryAware}
	for i := range r.channels {
		r.channels[i].lastReported = math.NaN()
		r.channels[i].cyclesSinceReport = forceSendInterval
	}
	return r
}

// Evaluate decides whether the freshly sampled value for ch must be
// transmitted this cycle and updates the channel's history accordingly.
// forceSendInterval is read per call so a remote update takes effect on the
// next evaluation without touching accumulated counters. pendingAck reports
// whether the channel's previous send is still unconfirmed.
func (r *Reporter) Evaluate(ch ChannelID, v float64, forceSendInterval uint16, pendingAck bool) bool {
	st := &r.channels[ch]

	// The base variant counts the current cycle before comparing; the
	// retry-aware variant reaches the same cadence by starting the counter
	// at 1 after a send and counting skipped cycles on the way out. Either
	// way an unchanged value is force-sent on the forceSendInterval-th
	// unchanged cycle.
	if !r.retryAware && st.cyclesSinceReport < math.MaxUint16 {
		st.cyclesSinceReport++
	}

	send := v != st.lastReported ||
		st.cyclesSinceReport >= forceSendInterval ||
		pendingAck

	if !send {
		if r.retryAware && st.cyclesSinceReport < math.MaxUint16 {
			st.cyclesSinceReport++
		}
		return false
	}

	st.lastReported = v
	if r.retryAware {
		// The send itself counts as one cycle toward the next force-send.
		st.cyclesSinceReport = 1
	} else {
		st.cyclesSinceReport = 0
	}
	return true
}

// LastReported returns the last transmitted value for ch. ok is false until
// the channel's first send.
func (r *Reporter) LastReported(ch ChannelID) (v float64, ok bool) {
	v = r.channels[ch].lastReported
	return v, !math.IsNaN(v)
}

// CyclesSinceReport returns the unchanged-cycle counter for ch.
func (r *Reporter) CyclesSinceReport(ch ChannelID) uint16 {
	return r.channels[ch].cyclesSinceReport
}
