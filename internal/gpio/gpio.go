// Package gpio drives the relay board and the tri-color status LED with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// Actuator sets relay channels and the status indicator.
type Actuator interface {
	// SetChannel energizes or de-energizes relay channel id (1-based).
	SetChannel(id int, energized bool) error

	// SetIndicator shows a steady color. ColorOff turns the LED off.
	SetIndicator(color climate.Color) error

	// Pulse briefly flashes the current indicator color to signal that a
	// sample was just taken. It returns early if ctx is cancelled.
	Pulse(ctx context.Context) error

	// Close de-energizes all outputs and releases GPIO resources.
	Close() error
}

// Relay board channels (BCM numbering). The board is active-low.
const (
	PinRelay1 = 23 // Channel 1: heat mat
	PinRelay2 = 18
	PinRelay3 = 24
	PinRelay4 = 25
)

// Status LED pins (BCM numbering), common cathode.
const (
	PinLEDRed   = 17
	PinLEDGreen = 27
	PinLEDBlue  = 22
)

// HeatMatChannel is the relay channel driven by the heating policy.
const HeatMatChannel = 1

// RelayPins lists the relay pins in channel order.
var RelayPins = []int{PinRelay1, PinRelay2, PinRelay3, PinRelay4}

// Pulse timing.
const (
	PulseFlashes = 2
	PulseStep    = 100 * time.Millisecond
)

// rgb returns the red, green, blue line values for a color.
func rgb(color climate.Color) ([3]int, error) {
	switch color {
	case climate.ColorOff:
		return [3]int{0, 0, 0}, nil
	case climate.ColorRed:
		return [3]int{1, 0, 0}, nil
	case climate.ColorGreen:
		return [3]int{0, 1, 0}, nil
	case climate.ColorBlue:
		return [3]int{0, 0, 1}, nil
	default:
		return [3]int{}, fmt.Errorf("unknown indicator color %q", color)
	}
}

func checkChannel(id, channels int) error {
	if id < 1 || id > channels {
		return fmt.Errorf("relay channel %d out of range 1..%d", id, channels)
	}
	return nil
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
