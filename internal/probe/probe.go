// Package probe provides temperature/humidity sampling with hardware
// abstraction. The real implementation drives a BME280-class sensor over
// I2C; the fake implementation allows testing without hardware.
package probe

import "errors"

// Sample is a single probe reading.
type Sample struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
}

// Sentinel read failures. Both are recovered locally by skipping the
// cycle's report; neither is retried within a cycle.
var (
	ErrSensorOffline = errors.New("probe: sensor offline")
	ErrChecksum      = errors.New("probe: checksum mismatch")
)

// Reader samples the probe.
type Reader interface {
	// Read returns one sample or a read failure.
	Read() (Sample, error)

	// Close releases sensor resources.
	Close() error
}
