//go:build !linux

package platform

import (
	"errors"
	"time"
)

// RealSleeper is not available on non-Linux platforms.
type RealSleeper struct{}

// NewRealSleeper returns a sleeper whose terminal suspend fails on non-Linux
// platforms.
func NewRealSleeper(chip string, pin int) *RealSleeper {
	return &RealSleeper{}
}

// SuspendFor blocks for the given duration.
func (s *RealSleeper) SuspendFor(d time.Duration) {
	time.Sleep(d)
}

// SuspendUntilInterrupt is not implemented on non-Linux platforms.
func (s *RealSleeper) SuspendUntilInterrupt() error {
	return errors.New("platform: wake pin not supported on this platform (requires Linux)")
}
