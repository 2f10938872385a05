// Package status provides a thread-safe status tracker for the greenhouse daemon.
// It is read by the heartbeat log, the SIGUSR1 dump, and -print-state.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// Config contains daemon configuration for display.
type Config struct {
	IntervalMs  int64
	HeartbeatMs int64
	Low         float64
	High        float64
	Store       string
	StatePath   string
}

// Counts tracks cycle outcomes since startup.
type Counts struct {
	Cycles           int
	SensorFailures   int
	StoreFailures    int
	ActuatorFailures int
}

// Failure classifies a failed step of a cycle.
type Failure string

const (
	FailureSensor   Failure = "sensor"
	FailureStore    Failure = "store"
	FailureActuator Failure = "actuator"
)

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	HasReading bool
	Reading    climate.Reading
	Extrema    climate.Extrema
	Relay      climate.RelayState
	Indicator  climate.Color
	Counts     Counts
	LastError  string
	StartTime  time.Time
	Now        time.Time
	Config     Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	lastHeartbeat time.Time
	now           func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Relay:     climate.RelayOff,
			Indicator: climate.ColorOff,
			Config:    cfg,
		},
		lastHeartbeat: startTime,
		now:           time.Now,
	}
}

// SetState records a reading and extrema without counting a cycle.
// Used to show persisted state before the first sample.
func (t *Tracker) SetState(r climate.Reading, e climate.Extrema) {
	t.mu.Lock()
	t.snap.HasReading = true
	t.snap.Reading = r
	t.snap.Extrema = e
	t.mu.Unlock()
}

// RecordCycle records the outcome of a completed cycle.
func (t *Tracker) RecordCycle(r climate.Reading, e climate.Extrema, d climate.Decision) {
	t.mu.Lock()
	t.snap.HasReading = true
	t.snap.Reading = r
	t.snap.Extrema = e
	t.snap.Relay = d.Relay
	t.snap.Indicator = d.Indicator
	t.snap.Counts.Cycles++
	t.mu.Unlock()
}

// RecordFailure counts a failed step and remembers its error.
func (t *Tracker) RecordFailure(kind Failure, err error) {
	t.mu.Lock()
	switch kind {
	case FailureSensor:
		t.snap.Counts.SensorFailures++
	case FailureStore:
		t.snap.Counts.StoreFailures++
	case FailureActuator:
		t.snap.Counts.ActuatorFailures++
	}
	if err != nil {
		t.snap.LastError = string(kind) + ": " + err.Error()
	}
	t.mu.Unlock()
}

// HeartbeatDue reports whether interval has elapsed since the last heartbeat
// (or startup), and if so restarts the interval. A non-positive interval
// disables heartbeats.
func (t *Tracker) HeartbeatDue(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
