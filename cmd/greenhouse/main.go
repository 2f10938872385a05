// Command greenhouse samples a DHT22, tracks temperature/humidity extrema, and
// drives a heat mat relay and status LED from a fixed threshold policy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/greenhouse-controller/internal/climate"
	"github.com/sweeney/greenhouse-controller/internal/control"
	"github.com/sweeney/greenhouse-controller/internal/gpio"
	"github.com/sweeney/greenhouse-controller/internal/sensor"
	"github.com/sweeney/greenhouse-controller/internal/status"
	"github.com/sweeney/greenhouse-controller/internal/store"
)

const defaultEnvFile = "/etc/greenhouse/greenhouse.env"

// Environment variables that override flag defaults.
const (
	envEnvFile   = "GREENHOUSE_ENV_FILE"
	envInterval  = "GREENHOUSE_INTERVAL"
	envLow       = "GREENHOUSE_LOW"
	envHigh      = "GREENHOUSE_HIGH"
	envState     = "GREENHOUSE_STATE"
	envStore     = "GREENHOUSE_STORE"
	envSensorDir = "GREENHOUSE_SENSOR_DIR"
	envChip      = "GREENHOUSE_CHIP"
)

type options struct {
	interval     time.Duration
	low, high    float64
	statePath    string
	backend      string
	legacy       bool
	sensorDir    string
	readAttempts int
	readDelay    time.Duration
	chip         string
	heartbeat    time.Duration
	selftest     bool
	printState   bool
}

func main() {
	loadEnvFile(envString(envEnvFile, defaultEnvFile))

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadEnvFile loads KEY=value pairs into the environment. Variables already
// set take precedence. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("env file %s: %v", path, err)
		}
		return
	}
	log.Printf("loaded environment from %s", path)
}

func parseFlags(args []string) (options, error) {
	var o options
	fset := flag.NewFlagSet("greenhouse", flag.ContinueOnError)

	fset.DurationVar(&o.interval, "interval", envDuration(envInterval, control.DefaultInterval), "Delay between cycles")
	fset.Float64Var(&o.low, "low", envFloat(envLow, climate.DefaultLow), "Heat mat switches on below this temperature (°C)")
	fset.Float64Var(&o.high, "high", envFloat(envHigh, climate.DefaultHigh), "Heat mat switches off at or above this temperature (°C)")
	fset.StringVar(&o.statePath, "state", envString(envState, ""), "State file (or database) path (default depends on -store)")
	fset.StringVar(&o.backend, "store", envString(envStore, store.BackendFile), "State backend: file or sqlite")
	fset.BoolVar(&o.legacy, "legacy-format", false, "Write the positional six-field state layout (file backend)")
	fset.StringVar(&o.sensorDir, "sensor-dir", envString(envSensorDir, ""), "IIO device directory of the DHT22 (empty to autodetect)")
	fset.IntVar(&o.readAttempts, "read-attempts", sensor.DefaultAttempts, "Sensor read attempts per cycle")
	fset.DurationVar(&o.readDelay, "read-delay", sensor.DefaultDelay, "Delay between sensor read attempts")
	fset.StringVar(&o.chip, "chip", envString(envChip, "gpiochip0"), "GPIO chip for relays and LED")
	fset.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat log interval (0 to disable)")
	fset.BoolVar(&o.selftest, "selftest", false, "Click every relay channel once at startup")
	fset.BoolVar(&o.printState, "print-state", false, "Print saved state and exit")

	if err := fset.Parse(args); err != nil {
		return options{}, err
	}
	if o.statePath == "" {
		o.statePath = store.DefaultPathFor(o.backend)
	}
	if o.interval <= 0 {
		return options{}, fmt.Errorf("interval must be positive, got %v", o.interval)
	}
	if err := o.thresholds().Validate(); err != nil {
		return options{}, err
	}
	return o, nil
}

func (o options) thresholds() climate.Thresholds {
	return climate.Thresholds{Low: o.low, High: o.high}
}

func (o options) statusConfig() status.Config {
	return status.Config{
		IntervalMs:  o.interval.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Low:         o.low,
		High:        o.high,
		Store:       o.backend,
		StatePath:   o.statePath,
	}
}

func run(o options) error {
	st, err := store.Open(o.backend, o.statePath, o.legacy)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tracker := status.NewTracker(time.Now(), o.statusConfig())

	// Print state mode
	if o.printState {
		return printState(os.Stdout, st, tracker)
	}

	reader, err := sensor.NewRealReader(o.sensorDir)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	actuator, err := gpio.NewRealActuator(o.chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := actuator.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	go handleSignals(sigCh, cancel, tracker)

	if o.selftest {
		log.Printf("relay self-test")
		if err := gpio.Sweep(ctx, actuator, len(gpio.RelayPins), gpio.SweepStep); err != nil {
			log.Printf("relay self-test failed: %v", err)
		}
	}

	loop := control.New(reader, actuator, st, climate.NewPolicy(o.thresholds()), tracker, control.Config{
		Interval:     o.interval,
		ReadAttempts: o.readAttempts,
		ReadDelay:    o.readDelay,
		Heartbeat:    o.heartbeat,
	})
	return loop.Run(ctx)
}

// handleSignals dumps status on SIGUSR1 and cancels on anything else.
func handleSignals(sig <-chan os.Signal, cancel context.CancelFunc, tracker *status.Tracker) {
	for s := range sig {
		if s == syscall.SIGUSR1 {
			if data, err := status.FormatCompact(tracker.Snapshot()); err != nil {
				log.Printf("status dump failed: %v", err)
			} else {
				log.Printf("status: %s", data)
			}
			continue
		}
		log.Printf("received %v, shutting down", s)
		cancel()
		return
	}
}

func printState(w io.Writer, st store.Store, tracker *status.Tracker) error {
	saved, err := st.Load()
	switch {
	case err == nil:
		tracker.SetState(saved.Reading, saved.Extrema)
	case errors.Is(err, store.ErrNotFound):
		// Nothing saved yet; print the empty status.
	default:
		return fmt.Errorf("load state: %w", err)
	}
	data, err := status.FormatJSON(tracker.Snapshot())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
