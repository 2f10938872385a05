package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// FormatVersion is the version written by Encode.
const FormatVersion = 1

// legacyFields is the number of positional fields in the legacy layout:
// [temperature, humidity, tempMin, tempMax, humiMin, humiMax].
const legacyFields = 6

type stateDoc struct {
	Version     int       `json:"version"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	SampledAt   time.Time `json:"sampled_at"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	HumiMin     float64   `json:"humi_min"`
	HumiMax     float64   `json:"humi_max"`
}

// Encode renders s in the versioned JSON format.
func Encode(s State) ([]byte, error) {
	doc := stateDoc{
		Version:     FormatVersion,
		Temperature: s.Reading.Temperature,
		Humidity:    s.Reading.Humidity,
		SampledAt:   s.Reading.SampledAt,
		TempMin:     s.Extrema.TempMin,
		TempMax:     s.Extrema.TempMax,
		HumiMin:     s.Extrema.HumiMin,
		HumiMax:     s.Extrema.HumiMax,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeLegacy renders s as the positional six-number array read by older
// deployments. The sample time is not part of that layout.
func EncodeLegacy(s State) ([]byte, error) {
	fields := []float64{
		s.Reading.Temperature,
		s.Reading.Humidity,
		s.Extrema.TempMin,
		s.Extrema.TempMax,
		s.Extrema.HumiMin,
		s.Extrema.HumiMax,
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode legacy state: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses either the versioned document or the legacy positional
// layout (a JSON array, or bare numbers separated by commas or whitespace).
// Any failure wraps ErrCorrupt.
func Decode(data []byte) (State, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return State{}, fmt.Errorf("%w: empty", ErrCorrupt)
	}

	var (
		s   State
		err error
	)
	switch data[0] {
	case '{':
		s, err = decodeDoc(data)
	case '[':
		s, err = decodeArray(data)
	default:
		s, err = decodePlain(string(data))
	}
	if err != nil {
		return State{}, err
	}

	if err := validate(s); err != nil {
		return State{}, err
	}
	return s, nil
}

// storedDoc mirrors stateDoc with pointer fields so absent or null values
// can be told apart from zero.
type storedDoc struct {
	Version     *int      `json:"version"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	SampledAt   time.Time `json:"sampled_at"`
	TempMin     *float64  `json:"temp_min"`
	TempMax     *float64  `json:"temp_max"`
	HumiMin     *float64  `json:"humi_min"`
	HumiMax     *float64  `json:"humi_max"`
}

func decodeDoc(data []byte) (State, error) {
	var doc storedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version == nil {
		return State{}, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	if *doc.Version != FormatVersion {
		return State{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, *doc.Version)
	}

	fields := []struct {
		name string
		v    *float64
	}{
		{"temperature", doc.Temperature},
		{"humidity", doc.Humidity},
		{"temp_min", doc.TempMin},
		{"temp_max", doc.TempMax},
		{"humi_min", doc.HumiMin},
		{"humi_max", doc.HumiMax},
	}
	for _, f := range fields {
		if f.v == nil {
			return State{}, fmt.Errorf("%w: missing %s", ErrCorrupt, f.name)
		}
	}

	return State{
		Reading: climate.Reading{
			Temperature: *doc.Temperature,
			Humidity:    *doc.Humidity,
			SampledAt:   doc.SampledAt,
		},
		Extrema: climate.Extrema{
			TempMin: *doc.TempMin,
			TempMax: *doc.TempMax,
			HumiMin: *doc.HumiMin,
			HumiMax: *doc.HumiMax,
		},
	}, nil
}

func decodeArray(data []byte) (State, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(raw) != legacyFields {
		return State{}, fmt.Errorf("%w: want %d fields, got %d", ErrCorrupt, legacyFields, len(raw))
	}
	fields := make([]float64, legacyFields)
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return State{}, fmt.Errorf("%w: field %d is not a number: %v", ErrCorrupt, i, v)
		}
		fields[i] = f
	}
	return fromFields(fields), nil
}

func decodePlain(text string) (State, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(parts) != legacyFields {
		return State{}, fmt.Errorf("%w: want %d fields, got %d", ErrCorrupt, legacyFields, len(parts))
	}
	fields := make([]float64, legacyFields)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return State{}, fmt.Errorf("%w: field %d: %v", ErrCorrupt, i, err)
		}
		fields[i] = f
	}
	return fromFields(fields), nil
}

func fromFields(f []float64) State {
	return State{
		Reading: climate.Reading{Temperature: f[0], Humidity: f[1]},
		Extrema: climate.Extrema{TempMin: f[2], TempMax: f[3], HumiMin: f[4], HumiMax: f[5]},
	}
}

func validate(s State) error {
	values := []float64{
		s.Reading.Temperature, s.Reading.Humidity,
		s.Extrema.TempMin, s.Extrema.TempMax, s.Extrema.HumiMin, s.Extrema.HumiMax,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrCorrupt)
		}
	}
	if !s.Extrema.Valid() {
		return fmt.Errorf("%w: inverted extrema %s", ErrCorrupt, s.Extrema)
	}
	return nil
}
