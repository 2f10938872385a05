//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDevicePattern locates the dht11 IIO device created by
// `dtoverlay=dht11,gpiopin=14`.
const DefaultDevicePattern = "/sys/bus/iio/devices/iio:device*"

const (
	tempFile     = "in_temp_input"
	humidityFile = "in_humidityrelative_input"
)

// RealReader reads the DHT22 through the kernel IIO driver. The driver does
// the bit-level bus timing; values are reported in milli-units.
type RealReader struct {
	dir string
}

// NewRealReader opens the IIO device at dir. If dir is empty, the first
// device exposing both temperature and humidity channels is used.
func NewRealReader(dir string) (*RealReader, error) {
	if dir == "" {
		found, err := findDevice(DefaultDevicePattern)
		if err != nil {
			return nil, err
		}
		dir = found
	}

	for _, name := range []string{tempFile, humidityFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("open sensor %s: %w", dir, err)
		}
	}

	return &RealReader{dir: dir}, nil
}

func findDevice(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	for _, dir := range matches {
		if _, err := os.Stat(filepath.Join(dir, humidityFile)); err == nil {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no dht IIO device matching %s (is the dht11 overlay loaded?)", pattern)
}

// Read returns one sample. The driver returns EIO on checksum or timing
// failure, which surfaces here as an error for ReadRetry to absorb.
func (r *RealReader) Read() (Sample, error) {
	temp, err := readMilli(filepath.Join(r.dir, tempFile))
	if err != nil {
		return Sample{}, fmt.Errorf("read temperature: %w", err)
	}

	humi, err := readMilli(filepath.Join(r.dir, humidityFile))
	if err != nil {
		return Sample{}, fmt.Errorf("read humidity: %w", err)
	}

	return Sample{Temperature: temp, Humidity: humi}, nil
}

// Close is a no-op; each Read opens and closes the sysfs attributes.
func (r *RealReader) Close() error {
	return nil
}

func readMilli(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return float64(v) / 1000, nil
}
