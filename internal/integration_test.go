package internal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/climate"
	"github.com/sweeney/greenhouse-controller/internal/control"
	"github.com/sweeney/greenhouse-controller/internal/gpio"
	"github.com/sweeney/greenhouse-controller/internal/sensor"
	"github.com/sweeney/greenhouse-controller/internal/status"
	"github.com/sweeney/greenhouse-controller/internal/store"
)

// runCycles runs a fresh loop over samples against st, the way the daemon
// would across one process lifetime.
func runCycles(t *testing.T, st store.Store, samples ...sensor.Sample) (*gpio.FakeActuator, *status.Tracker, *control.Loop) {
	t.Helper()
	actuator := gpio.NewFakeActuator()
	tracker := status.NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), status.Config{})
	loop := control.New(sensor.NewFakeReader(samples...), actuator, st,
		climate.NewPolicy(climate.DefaultThresholds()), tracker, control.Config{ReadAttempts: 1})

	loop.Start()
	for i := range samples {
		if err := loop.Cycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
	return actuator, tracker, loop
}

// TestIntegrationRestartKeepsExtrema exercises two process lifetimes on each
// backend: the second run must only widen what the first one persisted.
func TestIntegrationRestartKeepsExtrema(t *testing.T) {
	dir := t.TempDir()
	backends := []struct {
		name string
		open func(t *testing.T) store.Store
	}{
		{"file", func(t *testing.T) store.Store {
			return store.NewFileStore(filepath.Join(dir, "state.json"), false)
		}},
		{"sqlite", func(t *testing.T) store.Store {
			st, err := store.NewSQLiteStore(filepath.Join(dir, "state.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			return st
		}},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			first := b.open(t)
			_, _, loop := runCycles(t, first,
				sensor.Sample{Temperature: 24, Humidity: 60},
				sensor.Sample{Temperature: 26, Humidity: 70},
				sensor.Sample{Temperature: 31, Humidity: 55},
			)
			got, _ := loop.Extrema()
			want := climate.Extrema{TempMin: 24, TempMax: 31, HumiMin: 55, HumiMax: 70}
			if got != want {
				t.Fatalf("first run extrema: got %+v, want %+v", got, want)
			}
			if err := first.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			second := b.open(t)
			defer second.Close()
			_, _, loop = runCycles(t, second,
				sensor.Sample{Temperature: 27, Humidity: 50},
			)
			got, _ = loop.Extrema()
			want = climate.Extrema{TempMin: 24, TempMax: 31, HumiMin: 50, HumiMax: 70}
			if got != want {
				t.Errorf("second run extrema: got %+v, want %+v", got, want)
			}

			saved, err := second.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if saved.Extrema != want {
				t.Errorf("persisted extrema: got %+v, want %+v", saved.Extrema, want)
			}
			if saved.Reading.Temperature != 27 || saved.Reading.Humidity != 50 {
				t.Errorf("persisted reading: got %s", saved.Reading)
			}
		})
	}
}

// TestIntegrationOutputsAndStatus drives the documented temperature sequence
// through the loop and checks relay, indicator and status output together.
func TestIntegrationOutputsAndStatus(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"), false)
	actuator, tracker, _ := runCycles(t, st,
		sensor.Sample{Temperature: 24, Humidity: 60},
		sensor.Sample{Temperature: 26, Humidity: 60},
		sensor.Sample{Temperature: 31, Humidity: 60},
		sensor.Sample{Temperature: 27, Humidity: 60},
	)

	// Writes[0] is the reset done by Start.
	var relay []bool
	for _, w := range actuator.Writes[1:] {
		relay = append(relay, w.Energized)
	}
	wantRelay := []bool{true, true, false, false}
	if len(relay) != len(wantRelay) {
		t.Fatalf("relay writes: got %v, want %v", relay, wantRelay)
	}
	for i := range wantRelay {
		if relay[i] != wantRelay[i] {
			t.Errorf("relay[%d]: got %v, want %v", i, relay[i], wantRelay[i])
		}
	}

	// Colors[0] is the reset done by Start.
	wantColors := []climate.Color{climate.ColorBlue, climate.ColorGreen, climate.ColorRed, climate.ColorGreen}
	colors := actuator.Colors[1:]
	if len(colors) != len(wantColors) {
		t.Fatalf("colors: got %v, want %v", colors, wantColors)
	}
	for i := range wantColors {
		if colors[i] != wantColors[i] {
			t.Errorf("color[%d]: got %s, want %s", i, colors[i], wantColors[i])
		}
	}
	if actuator.Pulses != 4 {
		t.Errorf("Pulses: got %d, want 4", actuator.Pulses)
	}

	data, err := status.FormatJSON(tracker.Snapshot())
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var parsed status.StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if parsed.Status.HeatMat != "OFF" {
		t.Errorf("HeatMat: got %q, want OFF", parsed.Status.HeatMat)
	}
	if parsed.Status.Indicator != "GREEN" {
		t.Errorf("Indicator: got %q, want GREEN", parsed.Status.Indicator)
	}
	if parsed.Status.Counts.Cycles != 4 {
		t.Errorf("Cycles: got %d, want 4", parsed.Status.Counts.Cycles)
	}
	if parsed.Status.Extrema == nil || parsed.Status.Extrema.TempMin != 24 || parsed.Status.Extrema.TempMax != 31 {
		t.Errorf("Extrema: got %+v", parsed.Status.Extrema)
	}
}

// TestIntegrationLegacyStateUpgrade starts from a positional state file
// written by an older deployment and checks it is read, merged and rewritten
// in the versioned layout.
func TestIntegrationLegacyStateUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := store.NewFileStore(path, true)
	old := store.State{
		Reading: climate.Reading{Temperature: 22, Humidity: 65},
		Extrema: climate.Extrema{TempMin: 8, TempMax: 35, HumiMin: 30, HumiMax: 95},
	}
	if err := legacy.Save(old); err != nil {
		t.Fatalf("legacy Save: %v", err)
	}

	st := store.NewFileStore(path, false)
	_, _, loop := runCycles(t, st, sensor.Sample{Temperature: 40, Humidity: 50})

	got, _ := loop.Extrema()
	want := climate.Extrema{TempMin: 8, TempMax: 40, HumiMin: 30, HumiMax: 95}
	if got != want {
		t.Errorf("extrema: got %+v, want %+v", got, want)
	}

	saved, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Extrema != want {
		t.Errorf("persisted extrema: got %+v, want %+v", saved.Extrema, want)
	}
}

// TestIntegrationRunShutdown runs the full loop until cancellation and checks
// the outputs are left safe.
func TestIntegrationRunShutdown(t *testing.T) {
	actuator := gpio.NewFakeActuator()
	tracker := status.NewTracker(time.Now(), status.Config{})
	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"), false)

	ctx, cancel := context.WithCancel(context.Background())
	waits := 0
	loop := control.New(sensor.NewFakeReader(sensor.Sample{Temperature: 18, Humidity: 70}), actuator, st,
		climate.NewPolicy(climate.DefaultThresholds()), tracker, control.Config{
			ReadAttempts: 1,
			After: func(time.Duration) <-chan time.Time {
				waits++
				ch := make(chan time.Time, 1)
				if waits < 3 {
					ch <- time.Now()
				} else {
					cancel()
				}
				return ch
			},
		})

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := tracker.Snapshot().Counts.Cycles; got != 3 {
		t.Errorf("Cycles: got %d, want 3", got)
	}
	if actuator.Channels[gpio.HeatMatChannel] {
		t.Error("heat mat should be de-energized after Run returns")
	}
	if actuator.Indicator() != climate.ColorOff {
		t.Errorf("Indicator: got %s, want OFF", actuator.Indicator())
	}
}
