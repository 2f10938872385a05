package gpio

import (
	"context"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// ChannelWrite records one SetChannel call.
type ChannelWrite struct {
	ID        int
	Energized bool
}

// FakeActuator is a test double that records every output change.
type FakeActuator struct {
	// Channels holds the current state of relay channels 1..4 (index 0 unused).
	Channels [5]bool

	// Writes contains every SetChannel call in order.
	Writes []ChannelWrite

	// Colors contains every SetIndicator call in order.
	Colors []climate.Color

	// Pulses counts Pulse calls.
	Pulses int

	// SetChannelError, if set, is returned by SetChannel.
	SetChannelError error

	// SetIndicatorError, if set, is returned by SetIndicator.
	SetIndicatorError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeActuator creates a FakeActuator with all outputs off.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// SetChannel records the write.
func (f *FakeActuator) SetChannel(id int, energized bool) error {
	if f.SetChannelError != nil {
		return f.SetChannelError
	}
	if err := checkChannel(id, len(RelayPins)); err != nil {
		return err
	}
	f.Channels[id] = energized
	f.Writes = append(f.Writes, ChannelWrite{ID: id, Energized: energized})
	return nil
}

// SetIndicator records the color.
func (f *FakeActuator) SetIndicator(color climate.Color) error {
	if f.SetIndicatorError != nil {
		return f.SetIndicatorError
	}
	if _, err := rgb(color); err != nil {
		return err
	}
	f.Colors = append(f.Colors, color)
	return nil
}

// Pulse counts the pulse.
func (f *FakeActuator) Pulse(ctx context.Context) error {
	f.Pulses++
	return nil
}

// Close marks the actuator as closed and de-energizes every channel.
func (f *FakeActuator) Close() error {
	f.Channels = [5]bool{}
	f.Closed = true
	return nil
}

// Indicator returns the last color set, or ColorOff.
func (f *FakeActuator) Indicator() climate.Color {
	if len(f.Colors) == 0 {
		return climate.ColorOff
	}
	return f.Colors[len(f.Colors)-1]
}

// Reset clears recorded writes.
func (f *FakeActuator) Reset() {
	*f = FakeActuator{}
}
