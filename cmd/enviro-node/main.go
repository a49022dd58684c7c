// Command enviro-node samples a temperature/humidity probe on a duty cycle
// and reports readings to MQTT under a change-detection policy.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/enviro-node/internal/battery"
	"github.com/sweeney/enviro-node/internal/config"
	"github.com/sweeney/enviro-node/internal/logging"
	"github.com/sweeney/enviro-node/internal/node"
	"github.com/sweeney/enviro-node/internal/platform"
	"github.com/sweeney/enviro-node/internal/probe"
	"github.com/sweeney/enviro-node/internal/status"
	"github.com/sweeney/enviro-node/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (compiled defaults apply when empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	dev := flag.Bool("dev", false, "Human-readable log output instead of JSON")
	printReading := flag.Bool("print-reading", false, "Sample the probe once, print the reading and exit")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}

	level, ok := logging.ParseLevel(*logLevel)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", *logLevel)
		os.Exit(2)
	}
	log := logging.New(level, *dev, cfg.Node.ID)
	slog.SetDefault(log)

	if err := run(cfg, log, *printReading); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, printReading bool) error {
	pr, err := probe.NewRealReader(cfg.Probe.Bus, cfg.Probe.Address)
	if err != nil {
		return fmt.Errorf("init probe: %w", err)
	}
	defer pr.Close()

	// One-shot reading mode for installation checks.
	if printReading {
		sample, err := pr.Read()
		if err != nil {
			return fmt.Errorf("read probe: %w", err)
		}
		fmt.Printf("temperature: %.2f C, humidity: %.1f %%\n", sample.Temperature, sample.Humidity)
		return nil
	}

	link, err := transport.NewMQTTLink(cfg.MQTT.Broker, cfg.Node.ID, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer link.Close()

	batt := battery.NewSysfsReader(cfg.Battery.Supply)
	sleeper := platform.NewRealSleeper(cfg.Wake.Chip, cfg.Wake.Pin)
	restarter := &platform.RealRestarter{Log: log}
	tracker := status.NewTracker(cfg.Node.ID, time.Now())

	// Publish the startup event with a full status snapshot so the collector
	// sees every (re)boot, including watchdog and commanded restarts.
	snap := tracker.Snapshot()
	startup := transport.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := link.PublishSystem(startup); err != nil {
		log.Warn("startup event publish failed", "err", err)
	}

	n := node.New(pr, batt, link, sleeper, restarter, tracker, log, nodeOptions(cfg)...)

	log.Info("started",
		"broker", cfg.MQTT.Broker,
		"cycle_duration", cfg.Cycle.Duration(),
		"force_send_interval", cfg.Cycle.ForceSendInterval,
		"delivery_tracking", cfg.Features.DeliveryTracking,
		"remote_config", cfg.Features.RemoteConfig)

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigCh:
		name := signalName(s)
		log.Info("shutting down", "signal", name)
		shutdown := transport.SystemEvent{
			Timestamp:  time.Now(),
			Event:      "SHUTDOWN",
			Reason:     name,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name),
		}
		if err := link.PublishSystem(shutdown); err != nil {
			log.Warn("shutdown event publish failed", "err", err)
		}
		return nil

	case err := <-errCh:
		// A commanded or scheduled restart exits inside the restarter, so
		// the only error that lands here in production is the low-battery
		// halt after the wake interrupt fires.
		return err
	}
}

// nodeOptions assembles the scheduler capabilities selected by the config.
func nodeOptions(cfg *config.Config) []node.Option {
	opts := []node.Option{
		node.WithBootConfig(cfg.Cycle.Duration(), cfg.Cycle.ForceSendInterval),
	}
	if cfg.Features.DeliveryTracking {
		opts = append(opts, node.WithDeliveryTracking())
	}
	if cfg.Features.RemoteConfig {
		opts = append(opts, node.WithRemoteConfig())
	}
	return opts
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
