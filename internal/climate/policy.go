package climate

import (
	"fmt"
	"math"
)

// Default thresholds for the heat mat, in °C.
const (
	DefaultLow  = 25.0
	DefaultHigh = 30.0
)

// Thresholds bound the hysteresis dead band [Low, High).
type Thresholds struct {
	Low  float64
	High float64
}

// DefaultThresholds returns the stock 25/30 °C band.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLow, High: DefaultHigh}
}

// Validate checks that both thresholds are finite and Low < High.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Low) || math.IsInf(t.Low, 0) || math.IsNaN(t.High) || math.IsInf(t.High, 0) {
		return fmt.Errorf("thresholds must be finite (low=%v high=%v)", t.Low, t.High)
	}
	if t.Low >= t.High {
		return fmt.Errorf("low threshold %.1f must be below high threshold %.1f", t.Low, t.High)
	}
	return nil
}

// Policy drives the heat mat relay with hysteresis:
//   - Off -> On when temperature < Low
//   - On -> Off when temperature >= High
//   - otherwise hold
//
// The indicator is independent of the relay: Blue below Low, Green inside
// [Low, High), Red at or above High.
type Policy struct {
	thresholds Thresholds
	relay      RelayState
}

// NewPolicy creates a policy with the relay initially Off.
func NewPolicy(t Thresholds) *Policy {
	return &Policy{thresholds: t, relay: RelayOff}
}

// Thresholds returns the configured band.
func (p *Policy) Thresholds() Thresholds {
	return p.thresholds
}

// Relay returns the current relay state.
func (p *Policy) Relay() RelayState {
	return p.relay
}

// Evaluate advances the relay state machine with r and returns the desired
// relay and indicator state.
func (p *Policy) Evaluate(r Reading) Decision {
	prev := p.relay
	t := r.Temperature

	switch {
	case prev == RelayOff && t < p.thresholds.Low:
		p.relay = RelayOn
	case prev == RelayOn && t >= p.thresholds.High:
		p.relay = RelayOff
	}

	return Decision{
		Relay:     p.relay,
		Indicator: p.indicatorFor(t),
		Changed:   p.relay != prev,
	}
}

func (p *Policy) indicatorFor(t float64) Color {
	switch {
	case t >= p.thresholds.High:
		return ColorRed
	case t < p.thresholds.Low:
		return ColorBlue
	default:
		return ColorGreen
	}
}
