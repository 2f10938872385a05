//go:build !linux

package gpio

import (
	"context"
	"errors"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// RealActuator is not available on non-Linux platforms.
type RealActuator struct{}

// NewRealActuator returns an error on non-Linux platforms.
func NewRealActuator(chipName string) (*RealActuator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetChannel is not implemented on non-Linux platforms.
func (a *RealActuator) SetChannel(id int, energized bool) error {
	return errors.New("gpio: not supported")
}

// SetIndicator is not implemented on non-Linux platforms.
func (a *RealActuator) SetIndicator(color climate.Color) error {
	return errors.New("gpio: not supported")
}

// Pulse is not implemented on non-Linux platforms.
func (a *RealActuator) Pulse(ctx context.Context) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (a *RealActuator) Close() error {
	return nil
}
