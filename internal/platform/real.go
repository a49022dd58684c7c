//go:build linux

package platform

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealSleeper suspends using the OS timer and wakes from the terminal
// suspend on a rising edge on the wake pin.
type RealSleeper struct {
	chip string
	pin  int
}

// NewRealSleeper creates a sleeper whose terminal suspend watches the given
// pin on the given GPIO chip (e.g. "gpiochip0").
func NewRealSleeper(chip string, pin int) *RealSleeper {
	return &RealSleeper{chip: chip, pin: pin}
}

// SuspendFor blocks for the given duration.
func (s *RealSleeper) SuspendFor(d time.Duration) {
	time.Sleep(d)
}

// SuspendUntilInterrupt blocks until a rising edge on the wake pin. There is
// no timeout: only a physical interrupt ends the wait.
func (s *RealSleeper) SuspendUntilInterrupt() error {
	events := make(chan struct{}, 1)

	line, err := gpiocdev.RequestLine(s.chip, s.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			select {
			case events <- struct{}{}:
			default:
			}
		}))
	if err != nil {
		return fmt.Errorf("request wake pin %d: %w", s.pin, err)
	}
	defer line.Close()

	<-events
	return nil
}
