package transport

import (
	"github.com/sweeney/enviro-node/internal/logic"
)

// Transmission records one outbound reading for test assertions.
type Transmission struct {
	Channel    logic.ChannelID
	Value      float64
	RequireAck bool
}

// FakeLink records outbound traffic and delivers scripted inbound messages.
type FakeLink struct {
	// Transmissions contains all channel readings that were transmitted.
	Transmissions []Transmission

	// BatteryLevels contains all transmitted battery levels, in order.
	BatteryLevels []float64

	// SystemEvents contains all published lifecycle events.
	SystemEvents []SystemEvent

	// SlotRequests contains all poll requests, in order.
	SlotRequests []Slot

	// SlotResponses maps a slot to messages delivered one at a time on
	// each RequestSlot call, simulating a collector that answers polls.
	SlotResponses map[Slot][]Message

	// TransmitError, if set, will be returned by Transmit and
	// TransmitBattery.
	TransmitError error

	// Inbound is the message queue. Tests push asynchronous messages
	// (acks, pushed config) into it directly.
	Inbound chan Message

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLink creates a FakeLink with a buffered inbound queue.
func NewFakeLink() *FakeLink {
	return &FakeLink{
		Inbound:       make(chan Message, inboundQueueSize),
		SlotResponses: make(map[Slot][]Message),
	}
}

// Transmit records the reading.
func (f *FakeLink) Transmit(ch logic.ChannelID, value float64, requireAck bool) error {
	if f.TransmitError != nil {
		return f.TransmitError
	}
	f.Transmissions = append(f.Transmissions, Transmission{Channel: ch, Value: value, RequireAck: requireAck})
	return nil
}

// TransmitBattery records the level.
func (f *FakeLink) TransmitBattery(levelPercent float64) error {
	if f.TransmitError != nil {
		return f.TransmitError
	}
	f.BatteryLevels = append(f.BatteryLevels, levelPercent)
	return nil
}

// PublishSystem records the lifecycle event.
func (f *FakeLink) PublishSystem(event SystemEvent) error {
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// RequestSlot records the poll and delivers the next scripted response for
// the slot, if any.
func (f *FakeLink) RequestSlot(slot Slot) error {
	f.SlotRequests = append(f.SlotRequests, slot)

	if queue := f.SlotResponses[slot]; len(queue) > 0 {
		f.Inbound <- queue[0]
		f.SlotResponses[slot] = queue[1:]
	}
	return nil
}

// Messages delivers the scripted inbound queue.
func (f *FakeLink) Messages() <-chan Message {
	return f.Inbound
}

// Close marks the link as closed.
func (f *FakeLink) Close() error {
	f.Closed = true
	return nil
}

// ChannelTransmissions returns the transmitted values for one channel, in
// order.
func (f *FakeLink) ChannelTransmissions(ch logic.ChannelID) []float64 {
	var values []float64
	for _, tx := range f.Transmissions {
		if tx.Channel == ch {
			values = append(values, tx.Value)
		}
	}
	return values
}
