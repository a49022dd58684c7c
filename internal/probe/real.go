package probe

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// RealReader samples a BME280-class sensor over I2C.
type RealReader struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewRealReader opens the named I2C bus ("" selects the platform default)
// and initializes the sensor at addr.
func NewRealReader(busName string, addr uint16) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init sensor at 0x%x: %w", addr, err)
	}

	return &RealReader{bus: bus, dev: dev}, nil
}

// Read senses the environment once.
func (r *RealReader) Read() (Sample, error) {
	var env physic.Env
	if err := r.dev.Sense(&env); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrSensorOffline, err)
	}

	// env.Humidity is a fixed point integer at a precision of 0.00001%rH;
	// valid values are between 0% and 100%.
	return Sample{
		Temperature: env.Temperature.Celsius(),
		Humidity:    float64(env.Humidity) / 100000.0,
	}, nil
}

// Close halts the sensor and releases the bus.
func (r *RealReader) Close() error {
	var errs []error
	if r.dev != nil {
		if err := r.dev.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt sensor: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bus: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
