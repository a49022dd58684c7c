package node

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sweeney/enviro-node/internal/battery"
	"github.com/sweeney/enviro-node/internal/logic"
	"github.com/sweeney/enviro-node/internal/platform"
	"github.com/sweeney/enviro-node/internal/probe"
	"github.com/sweeney/enviro-node/internal/transport"
)

type harness struct {
	node      *Node
	probe     *probe.FakeReader
	battery   *battery.FakeReader
	link      *transport.FakeLink
	sleeper   *platform.FakeSleeper
	restarter *platform.FakeRestarter
}

// newHarness assembles a node over fakes. The wait windows are shortened so
// cycles that run to a deadline do not slow the suite down.
func newHarness(samples []probe.Sample, levels []float64, opts ...Option) *harness {
	h := &harness{
		probe:     probe.NewFakeReader(samples...),
		battery:   battery.NewFakeReader(levels...),
		link:      transport.NewFakeLink(),
		sleeper:   &platform.FakeSleeper{},
		restarter: &platform.FakeRestarter{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.node = New(h.probe, h.battery, h.link, h.sleeper, h.restarter, nil, log, opts...)
	h.node.ackWait = 5 * time.Millisecond
	h.node.pollWait = 5 * time.Millisecond
	return h
}

func TestFirstCycleSendsBothChannels(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})

	if got := h.node.RunOneCycle(); got != Continue {
		t.Fatalf("outcome: got %v, want Continue", got)
	}

	if len(h.link.Transmissions) != 2 {
		t.Fatalf("transmissions: got %d, want 2", len(h.link.Transmissions))
	}
	for _, tx := range h.link.Transmissions {
		if tx.RequireAck {
			t.Errorf("%s transmitted with ack required in the base assembly", tx.Channel)
		}
	}
	if got := h.link.ChannelTransmissions(logic.Temperature); len(got) != 1 || got[0] != 21.5 {
		t.Errorf("temperature transmissions: got %v, want [21.5]", got)
	}
	if got := h.link.ChannelTransmissions(logic.Humidity); len(got) != 1 || got[0] != 40.0 {
		t.Errorf("humidity transmissions: got %v, want [40]", got)
	}
	if len(h.link.BatteryLevels) != 1 || h.link.BatteryLevels[0] != 80 {
		t.Errorf("battery levels: got %v, want [80]", h.link.BatteryLevels)
	}
}

func TestUnchangedValuesSuppressed(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})

	h.node.RunOneCycle()
	h.node.RunOneCycle()

	if len(h.link.Transmissions) != 2 {
		t.Errorf("transmissions after unchanged cycle: got %d, want 2", len(h.link.Transmissions))
	}
	// The base assembly reports the battery every cycle regardless.
	if len(h.link.BatteryLevels) != 2 {
		t.Errorf("battery levels: got %d, want 2", len(h.link.BatteryLevels))
	}
}

func TestChangedValueSentAlone(t *testing.T) {
	h := newHarness([]probe.Sample{
		{Temperature: 21.5, Humidity: 40.0},
		{Temperature: 21.9, Humidity: 40.0},
	}, []float64{80})

	h.node.RunOneCycle()
	h.node.RunOneCycle()

	if got := h.link.ChannelTransmissions(logic.Temperature); len(got) != 2 || got[1] != 21.9 {
		t.Errorf("temperature transmissions: got %v, want [21.5 21.9]", got)
	}
	if got := h.link.ChannelTransmissions(logic.Humidity); len(got) != 1 {
		t.Errorf("humidity transmissions: got %v, want a single send", got)
	}
}

func TestForceSendOnThirdUnchangedCycle(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})

	// Cycle 1 sends; cycles 2 and 3 are suppressed; cycle 4 is the 3rd
	// unchanged cycle under the default interval of 3 and must send again.
	for i := 0; i < 4; i++ {
		h.node.RunOneCycle()
	}

	if got := h.link.ChannelTransmissions(logic.Temperature); len(got) != 2 {
		t.Errorf("temperature transmissions over 4 cycles: got %v, want 2 sends", got)
	}
}

func TestProbeFailureSkipsReporting(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})
	h.probe.ReadError = probe.ErrSensorOffline

	if got := h.node.RunOneCycle(); got != Continue {
		t.Fatalf("outcome: got %v, want Continue", got)
	}
	if len(h.link.Transmissions) != 0 {
		t.Errorf("transmissions after failed read: got %d, want 0", len(h.link.Transmissions))
	}
	// The battery is observed independently of the probe.
	if len(h.link.BatteryLevels) != 1 {
		t.Errorf("battery levels: got %d, want 1", len(h.link.BatteryLevels))
	}

	// Channel state is untouched: once the probe recovers, the first sample
	// still counts as the cold-start send.
	h.probe.ReadError = nil
	h.node.RunOneCycle()
	if len(h.link.Transmissions) != 2 {
		t.Errorf("transmissions after recovery: got %d, want 2", len(h.link.Transmissions))
	}
}

func TestDeliveryTrackingResendsUntilAck(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithDeliveryTracking())

	// Cycle 1: both channels send with ack required, nobody answers.
	h.node.RunOneCycle()
	for _, tx := range h.link.Transmissions {
		if !tx.RequireAck {
			t.Errorf("%s transmitted without ack required", tx.Channel)
		}
	}

	// Cycle 2: values unchanged, but both sends are unconfirmed and must be
	// re-issued.
	h.node.RunOneCycle()
	if got := h.link.ChannelTransmissions(logic.Temperature); len(got) != 2 {
		t.Errorf("temperature re-sends: got %v, want 2 sends", got)
	}

	// Both acks arrive while the node sleeps; cycle 3 drains them first and
	// suppresses the unchanged values.
	h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Temperature}
	h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Humidity}
	h.node.RunOneCycle()
	if got := h.link.ChannelTransmissions(logic.Temperature); len(got) != 2 {
		t.Errorf("temperature sends after ack: got %v, want still 2", got)
	}
}

func TestDeliveryTrackingAckWithinWindow(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithDeliveryTracking())
	h.node.ackWait = 200 * time.Millisecond

	go func() {
		time.Sleep(5 * time.Millisecond)
		h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Temperature}
		h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Humidity}
	}()

	start := time.Now()
	h.node.RunOneCycle()
	if elapsed := time.Since(start); elapsed >= h.node.ackWait {
		t.Errorf("ack window ran to its deadline (%v) despite both acks arriving", elapsed)
	}

	// Confirmed: the next unchanged cycle sends nothing.
	h.node.RunOneCycle()
	if len(h.link.Transmissions) != 2 {
		t.Errorf("transmissions: got %d, want 2", len(h.link.Transmissions))
	}
}

func TestBatterySuppressedOnQuietCycleWhenTracking(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithDeliveryTracking())

	h.node.RunOneCycle()
	if len(h.link.BatteryLevels) != 1 {
		t.Fatalf("battery levels after sending cycle: got %d, want 1", len(h.link.BatteryLevels))
	}

	// Acks clear the pending state; the next cycle sends no readings and the
	// tracking assembly keeps the battery level to itself.
	h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Temperature}
	h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Humidity}
	h.node.RunOneCycle()
	if len(h.link.BatteryLevels) != 1 {
		t.Errorf("battery levels after quiet cycle: got %d, want still 1", len(h.link.BatteryLevels))
	}
}

func TestLowBatteryLatchAfterStreak(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{9})

	if got := h.node.RunOneCycle(); got != Continue {
		t.Fatalf("cycle 1 outcome: got %v, want Continue", got)
	}
	if got := h.node.RunOneCycle(); got != Continue {
		t.Fatalf("cycle 2 outcome: got %v, want Continue", got)
	}
	if got := h.node.RunOneCycle(); got != LowBatteryHalt {
		t.Fatalf("cycle 3 outcome: got %v, want LowBatteryHalt", got)
	}

	// Two honest readings, then the explicit empty-battery report.
	want := []float64{9, 9, 0}
	if len(h.link.BatteryLevels) != len(want) {
		t.Fatalf("battery levels: got %v, want %v", h.link.BatteryLevels, want)
	}
	for i, lv := range want {
		if h.link.BatteryLevels[i] != lv {
			t.Errorf("battery level %d: got %v, want %v", i, h.link.BatteryLevels[i], lv)
		}
	}
}

func TestRunLowBatteryTerminalSuspend(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{9})

	err := h.node.Run()
	if !errors.Is(err, ErrLowBattery) {
		t.Fatalf("Run: got %v, want ErrLowBattery", err)
	}

	if h.sleeper.InterruptWaits != 1 {
		t.Errorf("interrupt waits: got %d, want 1", h.sleeper.InterruptWaits)
	}
	if len(h.sleeper.Suspensions) != 2 {
		t.Errorf("timed suspensions before halt: got %d, want 2", len(h.sleeper.Suspensions))
	}
	for i, d := range h.sleeper.Suspensions {
		if d != logic.DefaultCycleDuration {
			t.Errorf("suspension %d: got %v, want %v", i, d, logic.DefaultCycleDuration)
		}
	}

	if len(h.link.SystemEvents) != 1 {
		t.Fatalf("system events: got %d, want 1", len(h.link.SystemEvents))
	}
	ev := h.link.SystemEvents[0]
	if ev.Event != "LOW_BATTERY" {
		t.Errorf("event: got %q, want LOW_BATTERY", ev.Event)
	}
	if !ev.Retained {
		t.Error("lifecycle event should be retained")
	}
	if len(ev.RawPayload) == 0 {
		t.Error("lifecycle event should carry a status payload")
	}
}

func TestRemoteConfigPollApplies(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithRemoteConfig())
	h.link.SlotResponses[transport.SlotCycleDuration] = []transport.Message{
		{Kind: transport.KindConfig, Slot: transport.SlotCycleDuration, Value: 300000},
	}

	h.node.RunOneCycle()

	if got := h.node.Config().CycleDuration; got != 5*time.Minute {
		t.Errorf("cycle duration: got %v, want 5m", got)
	}

	wantPolls := []transport.Slot{
		transport.SlotCycleDuration,
		transport.SlotForceSendInterval,
		transport.SlotReset,
	}
	if len(h.link.SlotRequests) != len(wantPolls) {
		t.Fatalf("slot requests: got %v, want %v", h.link.SlotRequests, wantPolls)
	}
	for i, slot := range wantPolls {
		if h.link.SlotRequests[i] != slot {
			t.Errorf("slot request %d: got %v, want %v", i, h.link.SlotRequests[i], slot)
		}
	}
}

func TestRemoteConfigRejectsNonPositive(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithRemoteConfig())
	h.link.SlotResponses[transport.SlotCycleDuration] = []transport.Message{
		{Kind: transport.KindConfig, Slot: transport.SlotCycleDuration, Value: 0},
	}
	h.link.SlotResponses[transport.SlotForceSendInterval] = []transport.Message{
		{Kind: transport.KindConfig, Slot: transport.SlotForceSendInterval, Value: -2},
	}

	h.node.RunOneCycle()

	cfg := h.node.Config()
	if cfg.CycleDuration != logic.DefaultCycleDuration {
		t.Errorf("cycle duration: got %v, want untouched default", cfg.CycleDuration)
	}
	if cfg.ForceSendInterval != logic.DefaultForceSendInterval {
		t.Errorf("force-send interval: got %d, want untouched default", cfg.ForceSendInterval)
	}
}

func TestRemoteResetCommand(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80},
		WithRemoteConfig())
	h.link.SlotResponses[transport.SlotReset] = []transport.Message{
		{Kind: transport.KindReset},
	}

	err := h.node.Run()
	if !errors.Is(err, ErrRestartRequested) {
		t.Fatalf("Run: got %v, want ErrRestartRequested", err)
	}

	if len(h.restarter.Reasons) != 1 || h.restarter.Reasons[0] != platform.RestartReasonRemote {
		t.Errorf("restart reasons: got %v, want [remote]", h.restarter.Reasons)
	}
	if len(h.link.SystemEvents) != 1 || h.link.SystemEvents[0].Event != "RESTART" {
		t.Fatalf("system events: got %v, want one RESTART", h.link.SystemEvents)
	}
	if got := h.link.SystemEvents[0].Reason; got != platform.RestartReasonRemote {
		t.Errorf("restart event reason: got %q, want remote", got)
	}
}

func TestWatchdogRestart(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})

	err := h.node.Run()
	if !errors.Is(err, ErrRestartRequested) {
		t.Fatalf("Run: got %v, want ErrRestartRequested", err)
	}

	if len(h.restarter.Reasons) != 1 || h.restarter.Reasons[0] != platform.RestartReasonWatchdog {
		t.Errorf("restart reasons: got %v, want [watchdog]", h.restarter.Reasons)
	}
	// The restart fires at the end of the threshold cycle, so the node slept
	// one fewer time than it cycled.
	if got := len(h.sleeper.Suspensions); got != logic.ResetAfterCycles-1 {
		t.Errorf("suspensions before restart: got %d, want %d", got, logic.ResetAfterCycles-1)
	}
}

func TestInboundIgnoredWithoutRemoteConfig(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})
	h.link.Inbound <- transport.Message{Kind: transport.KindConfig, Slot: transport.SlotCycleDuration, Value: 300000}
	h.link.Inbound <- transport.Message{Kind: transport.KindReset}

	if got := h.node.RunOneCycle(); got != Continue {
		t.Fatalf("outcome: got %v, want Continue", got)
	}
	if got := h.node.Config().CycleDuration; got != logic.DefaultCycleDuration {
		t.Errorf("cycle duration: got %v, want untouched default", got)
	}
	if len(h.link.SlotRequests) != 0 {
		t.Errorf("slot requests: got %v, want none", h.link.SlotRequests)
	}
}

func TestAckIgnoredWithoutTracking(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})
	h.link.Inbound <- transport.Message{Kind: transport.KindAck, Channel: logic.Temperature}

	if got := h.node.RunOneCycle(); got != Continue {
		t.Errorf("outcome: got %v, want Continue", got)
	}
}

func TestTransmitErrorDoesNotAbortCycle(t *testing.T) {
	h := newHarness([]probe.Sample{{Temperature: 21.5, Humidity: 40.0}}, []float64{80})
	h.link.TransmitError = errors.New("broker unreachable")

	if got := h.node.RunOneCycle(); got != Continue {
		t.Errorf("outcome: got %v, want Continue", got)
	}
}
