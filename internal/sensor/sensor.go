// Package sensor provides temperature/humidity sampling with hardware abstraction.
// The real implementation reads the Linux dht11 IIO driver (which also serves the DHT22).
// The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Reader reads a single temperature/humidity sample.
type Reader interface {
	// Read performs one sensor transaction. DHT22 reads fail routinely
	// (checksum, timeout); callers should go through ReadRetry.
	Read() (Sample, error)

	// Close releases sensor resources.
	Close() error
}

// Sample is one raw sensor result.
type Sample struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
}

// DHT22 operating range.
const (
	MinTemperature = -40.0
	MaxTemperature = 80.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Retry defaults, matching the classic Adafruit read_retry behaviour.
const (
	DefaultAttempts = 15
	DefaultDelay    = 2 * time.Second
)

// ErrRetriesExhausted is returned by ReadRetry when every attempt failed.
var ErrRetriesExhausted = errors.New("sensor: retries exhausted")

// ErrInvalidSample is returned when a sample is outside the sensor's range.
var ErrInvalidSample = errors.New("sensor: sample out of range")

// Validate rejects samples the DHT22 cannot physically produce.
func (s Sample) Validate() error {
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.1f", ErrInvalidSample, s.Temperature)
	}
	if math.IsNaN(s.Humidity) || s.Humidity < MinHumidity || s.Humidity > MaxHumidity {
		return fmt.Errorf("%w: humidity %.1f", ErrInvalidSample, s.Humidity)
	}
	return nil
}

// ReadRetry calls r.Read up to maxAttempts times, waiting delay between
// failed attempts, and returns the first valid sample. The wait is cut short
// if ctx is cancelled.
func ReadRetry(ctx context.Context, r Reader, maxAttempts int, delay time.Duration) (Sample, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s, err := r.Read()
		if err == nil {
			err = s.Validate()
		}
		if err == nil {
			return s, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return Sample{}, err
		}
	}

	return Sample{}, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, maxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
