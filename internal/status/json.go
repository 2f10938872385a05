package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Extrema       *ExtremaJSON `json:"extrema,omitempty"`
	HeatMat       string       `json:"heat_mat"`
	Indicator     string       `json:"indicator"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counts        CountsJSON   `json:"counts"`
	LastError     string       `json:"last_error,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the latest reading.
type ReadingJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	SampledAt   string  `json:"sampled_at,omitempty"`
}

// ExtremaJSON is the JSON representation of the all-time extrema.
type ExtremaJSON struct {
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
	HumiMin float64 `json:"humi_min"`
	HumiMax float64 `json:"humi_max"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	Cycles           int `json:"cycles"`
	SensorFailures   int `json:"sensor_failures"`
	StoreFailures    int `json:"store_failures"`
	ActuatorFailures int `json:"actuator_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	IntervalMs  int64   `json:"interval_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Store       string  `json:"store"`
	StatePath   string  `json:"state_path"`
}

func buildInner(snap Snapshot) StatusInner {
	relay := string(snap.Relay)
	if relay == "" {
		relay = "UNKNOWN"
	}
	indicator := string(snap.Indicator)
	if indicator == "" {
		indicator = "UNKNOWN"
	}

	inner := StatusInner{
		HeatMat:       relay,
		Indicator:     indicator,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Cycles:           snap.Counts.Cycles,
			SensorFailures:   snap.Counts.SensorFailures,
			StoreFailures:    snap.Counts.StoreFailures,
			ActuatorFailures: snap.Counts.ActuatorFailures,
		},
		LastError: snap.LastError,
		Config: ConfigJSON{
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Low:         snap.Config.Low,
			High:        snap.Config.High,
			Store:       snap.Config.Store,
			StatePath:   snap.Config.StatePath,
		},
	}

	if snap.HasReading {
		inner.Reading = &ReadingJSON{
			Temperature: snap.Reading.Temperature,
			Humidity:    snap.Reading.Humidity,
		}
		if !snap.Reading.SampledAt.IsZero() {
			inner.Reading.SampledAt = snap.Reading.SampledAt.UTC().Format(time.RFC3339)
		}
		inner.Extrema = &ExtremaJSON{
			TempMin: snap.Extrema.TempMin,
			TempMax: snap.Extrema.TempMax,
			HumiMin: snap.Extrema.HumiMin,
			HumiMax: snap.Extrema.HumiMax,
		}
	}

	return inner
}

// FormatJSON returns the indented JSON status.
func FormatJSON(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return data, nil
}

// FormatCompact returns the JSON status on a single line, for log output.
func FormatCompact(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(StatusJSON{Status: buildInner(snap)})
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return data, nil
}
