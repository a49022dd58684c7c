// Package battery reads the node's state of charge with hardware
// abstraction. The real implementation reads the Linux power_supply class;
// the fake implementation allows testing without hardware.
package battery

// LevelReader yields the battery state of charge.
type LevelReader interface {
	// Read returns the state of charge as a percentage (0-100).
	Read() (float64, error)
}
