package battery

import "errors"

// FakeReader is a test double that returns scripted charge levels.
type FakeReader struct {
	// Levels contains scripted percentages. Each call to Read() consumes
	// the next level; once exhausted the last level repeats.
	Levels []float64

	// index tracks current position in Levels
	index int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given levels.
func NewFakeReader(levels ...float64) *FakeReader {
	return &FakeReader{Levels: levels}
}

// Read returns the next scripted level.
func (f *FakeReader) Read() (float64, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Levels) == 0 {
		return 0, errors.New("no levels configured")
	}

	level := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}

	return level, nil
}
