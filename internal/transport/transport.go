// Package transport carries readings to the remote collector and delivers
// inbound acknowledgements, configuration updates and reset commands, with
// abstraction for testing. The real implementation speaks MQTT.
package transport

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/enviro-node/internal/logic"
)

// Slot identifies one remotely polled value.
type Slot int

const (
	SlotCycleDuration Slot = iota
	SlotForceSendInterval
	SlotReset
)

// String returns the wire name of the slot.
func (s Slot) String() string {
	switch s {
	case SlotCycleDuration:
		return "cycle-duration"
	case SlotForceSendInterval:
		return "force-send-interval"
	case SlotReset:
		return "reset"
	}
	return "unknown"
}

// MessageKind classifies an inbound message.
type MessageKind int

const (
	KindAck MessageKind = iota
	KindConfig
	KindReset
)

// Message is one inbound message from the collector.
type Message struct {
	Kind    MessageKind
	Channel logic.ChannelID // KindAck only
	Slot    Slot            // KindConfig only
	Value   float64         // KindConfig only
}

// Link is the node's remote link.
type Link interface {
	// Transmit sends a channel reading. requireAck=true arranges for the
	// collector to confirm receipt via a later ack message.
	Transmit(ch logic.ChannelID, value float64, requireAck bool) error

	// TransmitBattery sends the battery state of charge.
	TransmitBattery(levelPercent float64) error

	// PublishSystem sends a lifecycle event to the collector.
	PublishSystem(event SystemEvent) error

	// RequestSlot asks the collector for a pending remote value. Any
	// response arrives later as an ordinary inbound message.
	RequestSlot(slot Slot) error

	// Messages delivers inbound messages. The channel is buffered; the
	// caller drains it at its own pace.
	Messages() <-chan Message

	// Close disconnects from the collector.
	Close() error
}

// Topic layout, rooted per node:
//
//	enviro/<node>/reading/<channel>   outbound channel readings
//	enviro/<node>/battery             outbound state of charge
//	enviro/<node>/system              outbound lifecycle events
//	enviro/<node>/poll/<slot>         outbound poll requests
//	enviro/<node>/cmd/ack/<channel>   inbound delivery confirmations
//	enviro/<node>/cmd/config/<slot>   inbound parameter updates (numeric payload)
//	enviro/<node>/cmd/reset           inbound restart command
const topicRoot = "enviro"

// ReadingTopic returns the outbound topic for a channel reading.
func ReadingTopic(nodeID string, ch logic.ChannelID) string {
	return topicRoot + "/" + nodeID + "/reading/" + ch.String()
}

// BatteryTopic returns the outbound topic for battery levels.
func BatteryTopic(nodeID string) string {
	return topicRoot + "/" + nodeID + "/battery"
}

// SystemTopic returns the outbound topic for lifecycle events.
func SystemTopic(nodeID string) string {
	return topicRoot + "/" + nodeID + "/system"
}

func pollTopic(nodeID string, slot Slot) string {
	return topicRoot + "/" + nodeID + "/poll/" + slot.String()
}

func commandFilter(nodeID string) string {
	return topicRoot + "/" + nodeID + "/cmd/#"
}

// parseCommand maps an inbound command topic and payload to a Message.
// Config payloads are bare decimal numbers (milliseconds for the cycle
// duration, a cycle count for the force-send interval).
func parseCommand(nodeID, topic string, payload []byte) (Message, bool) {
	prefix := topicRoot + "/" + nodeID + "/cmd/"
	suffix, found := strings.CutPrefix(topic, prefix)
	if !found {
		return Message{}, false
	}

	switch {
	case suffix == "reset":
		return Message{Kind: KindReset}, true

	case strings.HasPrefix(suffix, "ack/"):
		ch, ok := logic.ParseChannelID(strings.TrimPrefix(suffix, "ack/"))
		if !ok {
			return Message{}, false
		}
		return Message{Kind: KindAck, Channel: ch}, true

	case strings.HasPrefix(suffix, "config/"):
		var slot Slot
		switch strings.TrimPrefix(suffix, "config/") {
		case SlotCycleDuration.String():
			slot = SlotCycleDuration
		case SlotForceSendInterval.String():
			slot = SlotForceSendInterval
		default:
			return Message{}, false
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
		if err != nil {
			return Message{}, false
		}
		return Message{Kind: KindConfig, Slot: slot, Value: value}, true
	}

	return Message{}, false
}

// SystemEvent represents a lifecycle event (e.g. startup, shutdown,
// low-battery latch, restart).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "LOW_BATTERY", "RESTART"
	Reason     string // e.g. "SIGTERM", "watchdog" (where applicable)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingPayload represents the reading message payload structure.
type ReadingPayload struct {
	Reading ReadingBody `json:"reading"`
}

// ReadingBody contains the reading details.
type ReadingBody struct {
	Timestamp string  `json:"timestamp"`
	Channel   string  `json:"channel"`
	Value     float64 `json:"value"`
}

// FormatReadingPayload creates the JSON payload for a channel reading.
func FormatReadingPayload(ch logic.ChannelID, value float64, ts time.Time) ([]byte, error) {
	payload := ReadingPayload{
		Reading: ReadingBody{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Channel:   ch.String(),
			Value:     value,
		},
	}
	return json.Marshal(payload)
}

// BatteryPayload represents the battery message payload structure.
type BatteryPayload struct {
	Battery BatteryBody `json:"battery"`
}

// BatteryBody contains the battery level details.
type BatteryBody struct {
	Timestamp    string  `json:"timestamp"`
	LevelPercent float64 `json:"level_percent"`
}

// FormatBatteryPayload creates the JSON payload for a battery level.
func FormatBatteryPayload(levelPercent float64, ts time.Time) ([]byte, error) {
	payload := BatteryPayload{
		Battery: BatteryBody{
			Timestamp:    ts.UTC().Format(time.RFC3339),
			LevelPercent: levelPercent,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the payload for simple lifecycle events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemBody `json:"system"`
}

// SystemBody contains the lifecycle event details.
type SystemBody struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemBody{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
