// Package node implements the duty-cycle scheduler: once per wake cycle it
// samples the probe, runs the per-channel reporting policy, waits for
// delivery confirmations, observes the battery, polls the collector for
// configuration and reset commands, ticks the watchdog, and suspends the
// device until the next cycle.
package node

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sweeney/enviro-node/internal/battery"
	"github.com/sweeney/enviro-node/internal/logic"
	"github.com/sweeney/enviro-node/internal/platform"
	"github.com/sweeney/enviro-node/internal/probe"
	"github.com/sweeney/enviro-node/internal/status"
	"github.com/sweeney/enviro-node/internal/transport"
)

// CycleOutcome is the result of one wake cycle.
type CycleOutcome int

const (
	// Continue means the node sleeps for the cycle duration and runs the
	// next cycle.
	Continue CycleOutcome = iota

	// LowBatteryHalt means the battery latch fired: the node enters the
	// indefinite suspend and never resumes scheduling on its own.
	LowBatteryHalt

	// RestartWatchdog means the scheduled restart threshold was reached.
	RestartWatchdog

	// RestartRemote means the collector commanded a restart.
	RestartRemote
)

// Terminal conditions returned by Run.
var (
	ErrLowBattery       = errors.New("node: low battery halt")
	ErrRestartRequested = errors.New("node: restart requested")
)

// Bounded wait windows. Once entered, a window runs to its deadline or to
// the arrival of the awaited message; no cancellation.
const (
	ackWaitWindow  = 1000 * time.Millisecond
	pollWaitWindow = 1000 * time.Millisecond
)

// Option assembles an optional capability into the scheduler.
type Option func(*Node)

// WithDeliveryTracking turns sends into send-and-confirm: readings request
// acknowledgement and unconfirmed channels re-send every cycle.
func WithDeliveryTracking() Option {
	return func(n *Node) {
		n.delivery = logic.NewDeliveryTracker()
	}
}

// WithRemoteConfig enables inbound configuration updates and per-cycle
// polling for pending configuration and reset commands.
func WithRemoteConfig() Option {
	return func(n *Node) {
		n.remoteConfig = true
	}
}

// WithBootConfig overrides the compiled run-time defaults at boot. Invalid
// values are ignored, exactly like remote updates.
func WithBootConfig(cycleDuration time.Duration, forceSendInterval int) Option {
	return func(n *Node) {
		n.cfg.SetCycleDuration(cycleDuration)
		n.cfg.SetForceSendInterval(forceSendInterval)
	}
}

// Node owns all cross-cycle state. It is not safe for concurrent use: the
// scheduler is single-threaded and inbound messages are only processed at
// the drain points inside the cycle.
type Node struct {
	cfg      logic.NodeConfig
	reporter *logic.Reporter
	delivery *logic.DeliveryTracker // nil unless delivery tracking is on
	monitor  *logic.BatteryMonitor
	resets   *logic.ResetCounter

	remoteConfig   bool
	resetRequested bool

	probe     probe.Reader
	battery   battery.LevelReader
	link      transport.Link
	sleeper   platform.Sleeper
	restarter platform.Restarter
	stat      *status.Tracker
	log       *slog.Logger

	ackWait  time.Duration
	pollWait time.Duration
}

// New creates a node. Boot seeds cold-start bias: every channel sends on the
// first cycle.
func New(pr probe.Reader, batt battery.LevelReader, link transport.Link, sl platform.Sleeper, rs platform.Restarter, st *status.Tracker, log *slog.Logger, opts ...Option) *Node {
	if st == nil {
		st = status.NewTracker("", time.Now())
	}
	if log == nil {
		log = slog.Default()
	}

	n := &Node{
		cfg:       logic.DefaultNodeConfig(),
		monitor:   logic.NewBatteryMonitor(),
		resets:    logic.NewResetCounter(),
		probe:     pr,
		battery:   batt,
		link:      link,
		sleeper:   sl,
		restarter: rs,
		stat:      st,
		log:       log,
		ackWait:   ackWaitWindow,
		pollWait:  pollWaitWindow,
	}
	for _, opt := range opts {
		opt(n)
	}

	n.reporter = logic.NewReporter(n.cfg.ForceSendInterval, n.delivery != nil)
	return n
}

// Config returns the currently held run-time parameters.
func (n *Node) Config() logic.NodeConfig {
	return n.cfg
}

// RunOneCycle executes one wake cycle and reports how the outer loop should
// proceed.
func (n *Node) RunOneCycle() CycleOutcome {
	// Anything that arrived while the node slept is applied before the
	// send decisions.
	n.drainInbound()

	sent := 0

	sample, err := n.probe.Read()
	if err != nil {
		// Skip this cycle's report entirely; no channel state changes
		// and the read is not retried within the cycle.
		n.log.Warn("probe read failed", "err", err)
	} else {
		sent += n.report(logic.Temperature, sample.Temperature)
		sent += n.report(logic.Humidity, sample.Humidity)

		if n.delivery != nil && n.delivery.AnyPending() {
			n.awaitAcks()
		}
	}

	low := n.observeBattery(sent > 0)
	if low {
		return LowBatteryHalt
	}

	if n.remoteConfig {
		n.pollSlot(transport.SlotCycleDuration)
		n.pollSlot(transport.SlotForceSendInterval)
		n.pollSlot(transport.SlotReset)
	}

	watchdogDue := n.resets.Tick()
	n.recordStatus()

	if n.resetRequested {
		return RestartRemote
	}
	if watchdogDue {
		return RestartWatchdog
	}
	return Continue
}

// Run drives the duty cycle until a terminal condition. The sleep between
// cycles always lasts the full cycle duration regardless of what happened
// earlier in the cycle.
func (n *Node) Run() error {
	for {
		outcome := n.RunOneCycle()
		switch outcome {
		case LowBatteryHalt:
			n.log.Warn("low battery latched, entering indefinite suspend")
			n.publishSystem("LOW_BATTERY", "")
			if err := n.sleeper.SuspendUntilInterrupt(); err != nil {
				n.log.Error("terminal suspend failed", "err", err)
			}
			// Only a physical interrupt gets here; scheduling never
			// resumes on its own.
			return ErrLowBattery

		case RestartWatchdog, RestartRemote:
			reason := platform.RestartReasonWatchdog
			if outcome == RestartRemote {
				reason = platform.RestartReasonRemote
			}
			n.publishSystem("RESTART", reason)
			n.restarter.RequestRestart(reason)
			return ErrRestartRequested

		default:
			n.sleeper.SuspendFor(n.cfg.CycleDuration)
		}
	}
}

// report runs the send decision for one channel and transmits when due.
// Returns 1 if a transmission was issued.
func (n *Node) report(ch logic.ChannelID, v float64) int {
	pending := false
	if n.delivery != nil {
		pending = n.delivery.IsPendingAck(ch)
	}

	if !n.reporter.Evaluate(ch, v, n.cfg.ForceSendInterval, pending) {
		return 0
	}

	requireAck := n.delivery != nil
	if err := n.link.Transmit(ch, v, requireAck); err != nil {
		// Log only; the force-send interval (or the pending ack, when
		// tracking) recovers a lost value on a later cycle.
		n.log.Warn("transmit failed", "channel", ch.String(), "err", err)
	}
	if n.delivery != nil {
		n.delivery.OnSendIssued(ch)
	}
	n.stat.SetReported(ch, v)
	n.log.Debug("transmitted", "channel", ch.String(), "value", v, "require_ack", requireAck)
	return 1
}

// awaitAcks blocks the cycle for the ack window, processing inbound
// messages, until every pending channel is confirmed or the window closes.
func (n *Node) awaitAcks() {
	deadline := time.NewTimer(n.ackWait)
	defer deadline.Stop()

	for n.delivery.AnyPending() {
		select {
		case msg := <-n.link.Messages():
			n.handleMessage(msg)
		case <-deadline.C:
			n.log.Debug("ack window closed with deliveries pending")
			return
		}
	}
}

// observeBattery feeds one reading into the hysteresis monitor. allowSend
// gates forwarding of the raw level in the delivery-tracking assembly; the
// base assembly forwards unconditionally. Reports whether the low-battery
// latch fired.
func (n *Node) observeBattery(allowSend bool) bool {
	level, err := n.battery.Read()
	if err != nil {
		n.log.Warn("battery read failed", "err", err)
		return false
	}
	n.stat.SetBattery(level)

	if n.monitor.Observe(level) == logic.BatteryLow {
		// Report an explicit empty battery before the terminal suspend.
		if err := n.link.TransmitBattery(0); err != nil {
			n.log.Warn("battery transmit failed", "err", err)
		}
		return true
	}

	if allowSend || n.delivery == nil {
		if err := n.link.TransmitBattery(level); err != nil {
			n.log.Warn("battery transmit failed", "err", err)
		}
	}
	return false
}

// pollSlot asks the collector for a pending remote value and waits for the
// answer within the poll window. An unanswered poll is not an error; the
// cycle proceeds with the values already held.
func (n *Node) pollSlot(slot transport.Slot) {
	if err := n.link.RequestSlot(slot); err != nil {
		n.log.Warn("poll request failed", "slot", slot.String(), "err", err)
		return
	}

	deadline := time.NewTimer(n.pollWait)
	defer deadline.Stop()

	for {
		select {
		case msg := <-n.link.Messages():
			n.handleMessage(msg)
			if answersSlot(msg, slot) {
				return
			}
		case <-deadline.C:
			return
		}
	}
}

// answersSlot reports whether msg is the collector's answer to a poll of
// slot.
func answersSlot(msg transport.Message, slot transport.Slot) bool {
	switch msg.Kind {
	case transport.KindConfig:
		return msg.Slot == slot
	case transport.KindReset:
		return slot == transport.SlotReset
	}
	return false
}

// drainInbound applies every message already queued without blocking.
func (n *Node) drainInbound() {
	for {
		select {
		case msg := <-n.link.Messages():
			n.handleMessage(msg)
		default:
			return
		}
	}
}

// recordStatus publishes the cycle's counters into the status tracker.
func (n *Node) recordStatus() {
	pendingTemp, pendingHum := false, false
	if n.delivery != nil {
		pendingTemp = n.delivery.IsPendingAck(logic.Temperature)
		pendingHum = n.delivery.IsPendingAck(logic.Humidity)
	}
	n.stat.RecordCycle(n.resets.CyclesSinceBoot(), n.cfg, pendingTemp, pendingHum)
}

// publishSystem sends a lifecycle event carrying the current status
// snapshot.
func (n *Node) publishSystem(event, reason string) {
	ev := transport.SystemEvent{
		Timestamp:  time.Now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(n.stat.Snapshot(), event, reason),
	}
	if err := n.link.PublishSystem(ev); err != nil {
		n.log.Warn("system event publish failed", "event", event, "err", err)
	}
}
