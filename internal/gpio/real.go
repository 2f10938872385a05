//go:build linux

package gpio

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

const consumer = "greenhouse"

// RealActuator drives actual hardware using Linux GPIO character device.
type RealActuator struct {
	chip   *gpiocdev.Chip
	relays []*gpiocdev.Line
	led    *gpiocdev.Lines
	color  climate.Color
}

// NewRealActuator requests the relay and LED lines on the named chip
// (usually "gpiochip0"). Relays start de-energized and the LED off.
func NewRealActuator(chipName string) (*RealActuator, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	a := &RealActuator{chip: chip, color: climate.ColorOff}

	// The relay board switches on a low level. Requesting the lines active-low
	// makes logical 1 mean energized.
	for i, pin := range RelayPins {
		line, err := chip.RequestLine(pin, gpiocdev.AsActiveLow, gpiocdev.AsOutput(0))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("request relay %d pin %d: %w", i+1, pin, err)
		}
		a.relays = append(a.relays, line)
	}

	led, err := chip.RequestLines([]int{PinLEDRed, PinLEDGreen, PinLEDBlue}, gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("request LED pins: %w", err)
	}
	a.led = led

	return a, nil
}

// SetChannel energizes or de-energizes a relay channel.
func (a *RealActuator) SetChannel(id int, energized bool) error {
	if err := checkChannel(id, len(a.relays)); err != nil {
		return err
	}
	v := 0
	if energized {
		v = 1
	}
	if err := a.relays[id-1].SetValue(v); err != nil {
		return fmt.Errorf("set relay %d: %w", id, err)
	}
	return nil
}

// SetIndicator shows a steady color.
func (a *RealActuator) SetIndicator(color climate.Color) error {
	if err := a.writeLED(color); err != nil {
		return err
	}
	a.color = color
	return nil
}

// Pulse blinks the LED off and back to the current color.
func (a *RealActuator) Pulse(ctx context.Context) error {
	for i := 0; i < PulseFlashes; i++ {
		if err := a.writeLED(climate.ColorOff); err != nil {
			return err
		}
		if err := wait(ctx, PulseStep); err != nil {
			return a.writeLED(a.color)
		}
		if err := a.writeLED(a.color); err != nil {
			return err
		}
		if err := wait(ctx, PulseStep); err != nil {
			return nil
		}
	}
	return nil
}

func (a *RealActuator) writeLED(color climate.Color) error {
	v, err := rgb(color)
	if err != nil {
		return err
	}
	if err := a.led.SetValues(v[:]); err != nil {
		return fmt.Errorf("set indicator %s: %w", color, err)
	}
	return nil
}

// Close releases GPIO resources.
// Relays are de-energized and the LED switched off, then every line is
// reconfigured as input so nothing is left driven across a reboot.
func (a *RealActuator) Close() error {
	var errs []error

	for i, line := range a.relays {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("de-energize relay %d: %w", i+1, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure relay %d: %w", i+1, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay %d: %w", i+1, err))
		}
	}
	if a.led != nil {
		if err := a.led.SetValues([]int{0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("switch off LED: %w", err))
		}
		if err := a.led.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED: %w", err))
		}
		if err := a.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED: %w", err))
		}
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
