package sensor

import "errors"

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains scripted results to return.
	// Each call to Read() consumes the next entry.
	Samples []Sample

	// Errors, if non-nil at the same index as Samples, makes that call fail
	// instead of returning the sample.
	Errors []error

	// ReadError, if set, is returned by every Read().
	ReadError error

	// Calls counts Read() invocations.
	Calls int

	// Closed tracks if Close was called
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	f.Calls++
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	i := f.index
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	if i < len(f.Errors) && f.Errors[i] != nil {
		return Sample{}, f.Errors[i]
	}
	return f.Samples[i], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Calls = 0
	f.Closed = false
}
