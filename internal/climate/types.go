// Package climate contains the pure control logic for the growing space:
// extrema tracking and the heat mat hysteresis policy.
// This package has NO external dependencies (no GPIO, sensor, filesystem, or time.Sleep).
// Time is always carried in on the Reading.
package climate

import (
	"fmt"
	"time"
)

// Reading is a single temperature/humidity sample.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	SampledAt   time.Time
}

func (r Reading) String() string {
	return fmt.Sprintf("temp=%.1f°C humidity=%.1f%%", r.Temperature, r.Humidity)
}

// Extrema holds the all-time minimum and maximum for temperature and humidity.
type Extrema struct {
	TempMin float64
	TempMax float64
	HumiMin float64
	HumiMax float64
}

// Valid reports whether both ranges are ordered (min <= max).
func (e Extrema) Valid() bool {
	return e.TempMin <= e.TempMax && e.HumiMin <= e.HumiMax
}

func (e Extrema) String() string {
	return fmt.Sprintf("temp=[%.1f, %.1f] humidity=[%.1f, %.1f]", e.TempMin, e.TempMax, e.HumiMin, e.HumiMax)
}

// RelayState is the desired state of the heat mat relay.
type RelayState string

const (
	RelayOff RelayState = "OFF"
	RelayOn  RelayState = "ON"
)

// Energized reports whether the relay coil should be driven.
func (s RelayState) Energized() bool {
	return s == RelayOn
}

// Color is a steady status indicator color.
type Color string

const (
	ColorOff   Color = "OFF"
	ColorGreen Color = "GREEN"
	ColorBlue  Color = "BLUE"
	ColorRed   Color = "RED"
)

// Decision is the outcome of evaluating a reading against the policy.
type Decision struct {
	Relay     RelayState
	Indicator Color
	// Changed is true when Relay differs from the state before evaluation.
	Changed bool
}
