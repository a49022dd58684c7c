package logic

// DeliveryTracker records which channels have a transmission awaiting
// collector confirmation. A channel whose pending flag is still set when the
// next cycle's send decision runs triggers a re-send, giving an implicit
// retry-until-acknowledged policy with no explicit retry counter or backoff.
// An unacknowledged channel re-sends every cycle until acknowledged.
type DeliveryTracker struct {
	pending [numChannels]bool
}

// NewDeliveryTracker creates a tracker with no pending acknowledgements.
func NewDeliveryTracker() *DeliveryTracker {
	return &DeliveryTracker{}
}

// OnSendIssued marks ch as awaiting acknowledgement.
func (t *DeliveryTracker) OnSendIssued(ch ChannelID) {
	t.pending[ch] = true
}

// OnAckReceived clears the pending flag for ch.
func (t *DeliveryTracker) OnAckReceived(ch ChannelID) {
	t.pending[ch] = false
}

// IsPendingAck reports whether ch has an unconfirmed transmission.
func (t *DeliveryTracker) IsPendingAck(ch ChannelID) bool {
	return t.pending[ch]
}

// AnyPending reports whether any channel has an unconfirmed transmission.
func (t *DeliveryTracker) AnyPending() bool {
	for _, p := range t.pending {
		if p {
			return true
		}
	}
	return false
}
