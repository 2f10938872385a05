package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

func sampleState() State {
	return State{
		Reading: climate.Reading{
			Temperature: 23.7,
			Humidity:    64.2,
			SampledAt:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		},
		Extrema: climate.Extrema{TempMin: 11.3, TempMax: 31.9, HumiMin: 38.5, HumiMax: 91},
	}
}

func assertSameState(t *testing.T, want, got State) {
	t.Helper()
	assert.Equal(t, want.Extrema, got.Extrema)
	assert.Equal(t, want.Reading.Temperature, got.Reading.Temperature)
	assert.Equal(t, want.Reading.Humidity, got.Reading.Humidity)
	assert.True(t, want.Reading.SampledAt.Equal(got.Reading.SampledAt),
		"sampled_at: want %v, got %v", want.Reading.SampledAt, got.Reading.SampledAt)
}

func TestFileStoreNotFound(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"), false)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"), false)
	want := sampleState()

	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assertSameState(t, want, got)
}

func TestFileStoreOverwrites(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"), false)
	first := sampleState()
	second := sampleState()
	second.Reading.Temperature = 12.1
	second.Extrema.TempMin = 10.0

	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	assertSameState(t, second, got)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "state.json"), false)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(sampleState()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFileStoreLegacyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path, true)
	want := sampleState()

	require.NoError(t, s.Save(want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[23.7,64.2,11.3,31.9,38.5,91]\n", string(data))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Extrema, got.Extrema)
	assert.Equal(t, want.Reading.Temperature, got.Reading.Temperature)
	assert.True(t, got.Reading.SampledAt.IsZero())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("[1, 2, 3]"), 0o644))

	_, err := NewFileStore(path, false).Load()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDecodeLegacyLayouts(t *testing.T) {
	want := climate.Extrema{TempMin: 18, TempMax: 29.5, HumiMin: 40, HumiMax: 77}

	inputs := map[string]string{
		"json array":      "[24.1, 55.0, 18, 29.5, 40, 77]",
		"comma separated": "24.1,55.0,18,29.5,40,77\n",
		"one per line":    "24.1\n55.0\n18\n29.5\n40\n77\n",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			s, err := Decode([]byte(in))
			require.NoError(t, err)
			assert.Equal(t, 24.1, s.Reading.Temperature)
			assert.Equal(t, 55.0, s.Reading.Humidity)
			assert.Equal(t, want, s.Extrema)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	inputs := map[string]string{
		"empty":               "",
		"whitespace":          "   \n",
		"too few fields":      "[24.1, 55.0, 18, 29.5, 40]",
		"too many fields":     "[24.1, 55.0, 18, 29.5, 40, 77, 3]",
		"string field":        `[24.1, "55.0", 18, 29.5, 40, 77]`,
		"null field":          "[24.1, null, 18, 29.5, 40, 77]",
		"plain too few":       "24.1,55.0,18",
		"plain non-numeric":   "24.1,wet,18,29.5,40,77",
		"plain NaN":           "NaN,55,18,29.5,40,77",
		"inverted temp":       "[24.1, 55.0, 30, 20, 40, 77]",
		"inverted humidity":   "[24.1, 55.0, 18, 29.5, 80, 77]",
		"truncated document":  `{"version": 1, "temperature": 2`,
		"unknown version":     `{"version": 7, "temperature": 20, "humidity": 50, "temp_min": 1, "temp_max": 2, "humi_min": 3, "humi_max": 4}`,
		"missing version":     `{"temperature": 20, "humidity": 50}`,
		"garbage":             "\x00\x01\x02",
		"unterminated array":  "[24.1, 55.0",
		"wrong document type": `{"version": "one"}`,
		"version only":        `{"version": 1}`,
		"no extrema":          `{"version": 1, "temperature": 22, "humidity": 60}`,
		"null extrema":        `{"version": 1, "temperature": 22, "humidity": 60, "temp_min": null, "temp_max": 30, "humi_min": 40, "humi_max": 70}`,
		"missing humi_max":    `{"version": 1, "temperature": 22, "humidity": 60, "temp_min": 10, "temp_max": 30, "humi_min": 40}`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeDocumentAllowsZeroValues(t *testing.T) {
	in := `{"version": 1, "temperature": 0, "humidity": 0, "temp_min": -3, "temp_max": 0, "humi_min": 0, "humi_max": 0}`

	s, err := Decode([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, climate.Extrema{TempMin: -3, TempMax: 0, HumiMin: 0, HumiMax: 0}, s.Extrema)
	assert.True(t, s.Reading.SampledAt.IsZero())
}

func TestEncodeIsVersioned(t *testing.T) {
	data, err := Encode(sampleState())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)

	got, err := Decode(data)
	require.NoError(t, err)
	assertSameState(t, sampleState(), got)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	want := sampleState()
	require.NoError(t, s.Save(want))

	want.Reading.Temperature = 19.4
	want.Extrema.TempMin = 9.9
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assertSameState(t, want, got)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(sampleState()))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assertSameState(t, sampleState(), got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open(BackendFile, filepath.Join(dir, "state.json"), false)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)

	db, err := Open(BackendSQLite, filepath.Join(dir, "state.db"), false)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, db)
	require.NoError(t, db.Close())

	_, err = Open("etcd", "", false)
	assert.Error(t, err)
}

func TestDefaultPathFor(t *testing.T) {
	assert.Equal(t, DefaultPath, DefaultPathFor(BackendFile))
	assert.Equal(t, DefaultPath, DefaultPathFor(""))
	assert.Equal(t, DefaultSQLitePath, DefaultPathFor(BackendSQLite))
}
