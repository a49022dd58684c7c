package node

import (
	"time"

	"github.com/sweeney/enviro-node/internal/transport"
)

// handleMessage routes one inbound message. Called only from the cycle's
// drain points, so no locking is needed around the shared state it mutates.
func (n *Node) handleMessage(msg transport.Message) {
	switch msg.Kind {
	case transport.KindAck:
		if n.delivery == nil {
			n.log.Debug("ack received but delivery tracking is off", "channel", msg.Channel.String())
			return
		}
		n.delivery.OnAckReceived(msg.Channel)
		n.log.Debug("delivery confirmed", "channel", msg.Channel.String())

	case transport.KindConfig:
		if !n.remoteConfig {
			n.log.Debug("config update ignored, remote config is off", "slot", msg.Slot.String())
			return
		}
		n.applyConfig(msg.Slot, msg.Value)

	case transport.KindReset:
		if !n.remoteConfig {
			n.log.Debug("reset command ignored, remote config is off")
			return
		}
		n.resetRequested = true
	}
}

// applyConfig validates and applies one remote parameter update. A
// non-positive value is silently ignored; no rejection is reported back to
// the collector. Accepted updates take effect from the next wait that reads
// the parameter, never retroactively on counters already accumulated.
func (n *Node) applyConfig(slot transport.Slot, value float64) {
	switch slot {
	case transport.SlotCycleDuration:
		d := time.Duration(value) * time.Millisecond
		if n.cfg.SetCycleDuration(d) {
			n.log.Info("cycle duration updated", "duration", d)
		} else {
			n.log.Debug("cycle duration update rejected", "value_ms", value)
		}

	case transport.SlotForceSendInterval:
		if n.cfg.SetForceSendInterval(int(value)) {
			n.log.Info("force-send interval updated", "cycles", int(value))
		} else {
			n.log.Debug("force-send interval update rejected", "value", value)
		}
	}
}
