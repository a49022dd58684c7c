package transport

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/enviro-node/internal/logic"
)

// inboundQueueSize bounds how many unprocessed collector messages can pile
// up between the node's drain points.
const inboundQueueSize = 16

// outboxCapacity bounds how many outbound messages are held while the
// broker is unreachable.
const outboxCapacity = 32

// MQTTLink is a Link backed by an MQTT broker.
type MQTTLink struct {
	client paho.Client
	nodeID string
	log    *slog.Logger
	msgs   chan Message

	mu     sync.Mutex
	outbox *outbox
}

// NewMQTTLink connects to the broker and subscribes to the node's command
// topics.
func NewMQTTLink(broker, nodeID string, log *slog.Logger) (*MQTTLink, error) {
	l := &MQTTLink{
		nodeID: nodeID,
		log:    log,
		msgs:   make(chan Message, inboundQueueSize),
		outbox: newOutbox(outboxCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("enviro-node-" + nodeID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(l.onConnect)

	l.client = paho.NewClient(opts)
	token := l.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return l, nil
}

// onConnect runs on every (re)connect: renew the command subscription and
// replay anything queued while offline.
func (l *MQTTLink) onConnect(c paho.Client) {
	token := c.Subscribe(commandFilter(l.nodeID), 1, l.onCommand)
	if !token.WaitTimeout(5 * time.Second) {
		l.log.Warn("command subscribe timeout")
	} else if err := token.Error(); err != nil {
		l.log.Warn("command subscribe failed", "err", err)
	}

	l.mu.Lock()
	queued := l.outbox.drainAll()
	l.mu.Unlock()

	for _, m := range queued {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			l.log.Warn("replay timeout", "topic", m.topic)
		} else if err := token.Error(); err != nil {
			l.log.Warn("replay failed", "topic", m.topic, "err", err)
		}
	}
	if len(queued) > 0 {
		l.log.Info("replayed queued messages", "count", len(queued))
	}
}

// onCommand runs on the paho client's goroutine; it only parses and queues,
// the node drains the queue at its own serialization points.
func (l *MQTTLink) onCommand(_ paho.Client, m paho.Message) {
	msg, ok := parseCommand(l.nodeID, m.Topic(), m.Payload())
	if !ok {
		l.log.Warn("unrecognized command", "topic", m.Topic())
		return
	}

	select {
	case l.msgs <- msg:
	default:
		l.log.Warn("inbound queue full, dropping message", "topic", m.Topic())
	}
}

// Transmit sends a channel reading. With requireAck the message is published
// at QoS 1 and the collector confirms receipt on the ack command topic.
func (l *MQTTLink) Transmit(ch logic.ChannelID, value float64, requireAck bool) error {
	payload, err := FormatReadingPayload(ch, value, time.Now())
	if err != nil {
		return fmt.Errorf("format reading payload: %w", err)
	}

	var qos byte
	if requireAck {
		qos = 1
	}
	return l.publish(ReadingTopic(l.nodeID, ch), qos, false, payload)
}

// TransmitBattery sends the battery state of charge.
func (l *MQTTLink) TransmitBattery(levelPercent float64) error {
	payload, err := FormatBatteryPayload(levelPercent, time.Now())
	if err != nil {
		return fmt.Errorf("format battery payload: %w", err)
	}
	return l.publish(BatteryTopic(l.nodeID), 0, false, payload)
}

// PublishSystem sends a lifecycle event.
func (l *MQTTLink) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return l.publish(SystemTopic(l.nodeID), 1, event.Retained, payload)
}

// RequestSlot publishes a poll request; the collector answers (if at all) on
// the matching command topic.
func (l *MQTTLink) RequestSlot(slot Slot) error {
	return l.publish(pollTopic(l.nodeID, slot), 0, false, []byte("{}"))
}

// publish sends one message, queueing it for replay when disconnected.
func (l *MQTTLink) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !l.client.IsConnected() {
		l.mu.Lock()
		dropped := l.outbox.push(queuedTransmit{topic: topic, payload: payload, qos: qos, retained: retained})
		queued := l.outbox.len()
		l.mu.Unlock()

		if dropped {
			l.log.Warn("outbox full, dropped oldest message")
		}
		l.log.Debug("broker unreachable, queued message", "topic", topic, "queued", queued)
		return nil
	}

	token := l.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Messages delivers inbound messages.
func (l *MQTTLink) Messages() <-chan Message {
	return l.msgs
}

// Close disconnects from the broker.
func (l *MQTTLink) Close() error {
	l.client.Disconnect(1000) // 1 second timeout
	return nil
}
