// Package control runs the sample → persist → actuate → wait cycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/climate"
	"github.com/sweeney/greenhouse-controller/internal/gpio"
	"github.com/sweeney/greenhouse-controller/internal/sensor"
	"github.com/sweeney/greenhouse-controller/internal/status"
	"github.com/sweeney/greenhouse-controller/internal/store"
)

// State is the phase the loop is in.
type State string

const (
	StateStarting  State = "STARTING"
	StateSampling  State = "SAMPLING"
	StateActuating State = "ACTUATING"
	StateWaiting   State = "WAITING"
)

// DefaultInterval is the delay between the end of one cycle and the start of the next.
const DefaultInterval = 30 * time.Second

// Config holds loop timing. Zero values fall back to defaults.
type Config struct {
	Interval     time.Duration
	ReadAttempts int
	ReadDelay    time.Duration
	Heartbeat    time.Duration

	// Now and After are injectable for tests.
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// Loop owns the control state. It is driven from a single goroutine.
type Loop struct {
	sensor   sensor.Reader
	actuator gpio.Actuator
	store    store.Store
	policy   *climate.Policy
	tracker  *status.Tracker
	cfg      Config

	state   State
	loaded  *climate.Extrema
	extrema climate.Extrema
	seeded  bool
}

// New creates a loop. The ports are owned by the caller, which must close them.
func New(r sensor.Reader, a gpio.Actuator, st store.Store, p *climate.Policy, tr *status.Tracker, cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = sensor.DefaultAttempts
	}
	if cfg.ReadDelay < 0 {
		cfg.ReadDelay = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.After == nil {
		cfg.After = time.After
	}
	return &Loop{
		sensor:   r,
		actuator: a,
		store:    st,
		policy:   p,
		tracker:  tr,
		cfg:      cfg,
		state:    StateStarting,
	}
}

// State returns the current phase.
func (l *Loop) State() State {
	return l.state
}

// Extrema returns the current extrema and whether any reading has been taken.
func (l *Loop) Extrema() (climate.Extrema, bool) {
	return l.extrema, l.seeded
}

// Start drives the outputs to a known state and loads persisted extrema.
// A missing or unreadable state is not fatal: extrema are then initialized
// from the first reading.
func (l *Loop) Start() {
	l.state = StateStarting

	if err := l.actuator.SetChannel(gpio.HeatMatChannel, false); err != nil {
		l.actuatorFailed("reset heat mat", err)
	}
	if err := l.actuator.SetIndicator(climate.ColorOff); err != nil {
		l.actuatorFailed("reset indicator", err)
	}

	st, err := l.store.Load()
	switch {
	case err == nil:
		e := st.Extrema
		l.loaded = &e
		l.tracker.SetState(st.Reading, st.Extrema)
		log.Printf("loaded state: last %s, extrema %s", st.Reading, st.Extrema)
	case errors.Is(err, store.ErrNotFound):
		log.Printf("no saved state, initializing from first reading")
	default:
		l.tracker.RecordFailure(status.FailureStore, err)
		log.Printf("saved state unusable, reinitializing from first reading: %v", err)
	}
}

// Cycle samples once, updates and saves extrema, and applies the policy.
// It returns an error only when no reading could be taken; persistence and
// actuator failures are logged and counted but do not abort the cycle.
func (l *Loop) Cycle(ctx context.Context) error {
	l.state = StateSampling
	s, err := sensor.ReadRetry(ctx, l.sensor, l.cfg.ReadAttempts, l.cfg.ReadDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		l.tracker.RecordFailure(status.FailureSensor, err)
		return fmt.Errorf("sample: %w", err)
	}

	l.state = StateActuating
	r := climate.Reading{
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		SampledAt:   l.cfg.Now(),
	}
	l.extrema = l.reconcile(r)

	if err := l.store.Save(store.State{Reading: r, Extrema: l.extrema}); err != nil {
		l.tracker.RecordFailure(status.FailureStore, err)
		log.Printf("save state failed: %v", err)
	}

	d := l.policy.Evaluate(r)
	if d.Changed {
		log.Printf("heat mat %s at %.1f°C", d.Relay, r.Temperature)
	}
	l.apply(ctx, d)

	l.tracker.RecordCycle(r, l.extrema, d)
	log.Printf("reading: %s extrema: %s heat_mat=%s indicator=%s", r, l.extrema, d.Relay, d.Indicator)
	return nil
}

// reconcile folds r into the running extrema. The first reading seeds the
// extrema and widens whatever was loaded from the store.
func (l *Loop) reconcile(r climate.Reading) climate.Extrema {
	if l.seeded {
		return climate.Update(l.extrema, r)
	}
	l.seeded = true
	fresh := climate.Seed(r)
	if l.loaded == nil {
		return fresh
	}
	return climate.Merge(*l.loaded, fresh)
}

func (l *Loop) apply(ctx context.Context, d climate.Decision) {
	if err := l.actuator.SetChannel(gpio.HeatMatChannel, d.Relay.Energized()); err != nil {
		l.actuatorFailed("set heat mat", err)
	}
	if err := l.actuator.SetIndicator(d.Indicator); err != nil {
		l.actuatorFailed("set indicator", err)
		return
	}
	if err := l.actuator.Pulse(ctx); err != nil && ctx.Err() == nil {
		l.actuatorFailed("pulse indicator", err)
	}
}

func (l *Loop) actuatorFailed(step string, err error) {
	l.tracker.RecordFailure(status.FailureActuator, err)
	log.Printf("%s failed: %v", step, err)
}

// Run starts the loop and cycles until ctx is cancelled. Cancellation is
// observed before sampling and during the wait. On return the heat mat is
// de-energized and the indicator switched off.
func (l *Loop) Run(ctx context.Context) error {
	l.Start()
	defer l.shutdown()

	log.Printf("started: interval=%v low=%.1f high=%.1f",
		l.cfg.Interval, l.policy.Thresholds().Low, l.policy.Thresholds().High)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := l.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("cycle skipped: %v", err)
		}

		if l.tracker.HeartbeatDue(l.cfg.Now(), l.cfg.Heartbeat) {
			if data, err := status.FormatCompact(l.tracker.Snapshot()); err != nil {
				log.Printf("heartbeat: %v", err)
			} else {
				log.Printf("heartbeat: %s", data)
			}
		}

		l.state = StateWaiting
		select {
		case <-ctx.Done():
			return nil
		case <-l.cfg.After(l.cfg.Interval):
		}
	}
}

func (l *Loop) shutdown() {
	if err := l.actuator.SetChannel(gpio.HeatMatChannel, false); err != nil {
		log.Printf("shutdown: de-energize heat mat failed: %v", err)
	}
	if err := l.actuator.SetIndicator(climate.ColorOff); err != nil {
		log.Printf("shutdown: indicator off failed: %v", err)
	}
	log.Printf("stopped")
}
