// Package trajectory stores recorded displacement samples and rebuilds
// a continuous position signal from the fixed 20 Hz sample grid.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package trajectory

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"stagectl/pkg/errors"
)

const (
	// Capacity is the maximum number of stored samples.
	Capacity = 2400

	// SamplePeriod is the implicit spacing between samples in seconds.
	SamplePeriod = 0.05
)

// Store is a capacity-bounded sequence of displacement samples (mm).
// It is populated wholesale by an upload commit or a file load and is
// never mutated incrementally afterwards.
type Store struct {
	samples []float64
}

// NewStore returns an empty store with capacity preallocated.
func NewStore() *Store {
	return &Store{samples: make([]float64, 0, Capacity)}
}

// SetSamples replaces the stored sequence, truncating at Capacity.
func (s *Store) SetSamples(samples []float64) {
	if len(samples) > Capacity {
		samples = samples[:Capacity]
	}
	s.samples = s.samples[:0]
	s.samples = append(s.samples, samples...)
}

// Count returns the number of stored samples.
func (s *Store) Count() int {
	return len(s.samples)
}

// Sample returns the i'th stored displacement.
func (s *Store) Sample(i int) float64 {
	return s.samples[i]
}

// Duration returns the trajectory play time in seconds.
func (s *Store) Duration() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return float64(len(s.samples)-1) * SamplePeriod
}

// Interpolate returns the displacement at time t, linearly blended
// between the two neighboring grid samples. The result is clamped to
// the first and last samples rather than extrapolated; fewer than two
// samples yields zero.
func (s *Store) Interpolate(t float64) float64 {
	n := len(s.samples)
	if n < 2 {
		return 0
	}

	idx := t / SamplePeriod
	// The division lands a few ULPs off an integer for grid-point
	// times; snap so sample times reproduce their samples exactly.
	if nearest := math.Round(idx); math.Abs(idx-nearest) < 1e-9 {
		idx = nearest
	}
	if idx <= 0 {
		return s.samples[0]
	}
	if idx >= float64(n-1) {
		return s.samples[n-1]
	}

	lo := int(math.Floor(idx))
	frac := idx - float64(lo)
	return s.samples[lo] + (s.samples[lo+1]-s.samples[lo])*frac
}

// FileStore persists a sample sequence as one numeric value per line.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads a sample sequence, one value per line. Unparsable lines
// fall back to zero, matching the lenient ingest contract.
func (f *FileStore) Load() ([]float64, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "open trajectory file")
	}
	defer file.Close()

	samples := make([]float64, 0, Capacity)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(samples) >= Capacity {
			break
		}
		samples = append(samples, parseLenient(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "read trajectory file")
	}
	return samples, nil
}

// Save writes the sequence, one value per line.
func (f *FileStore) Save(samples []float64) error {
	file, err := os.Create(f.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrStorage, "create trajectory file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, v := range samples {
		fmt.Fprintf(w, "%g\n", v)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrStorage, "write trajectory file")
	}
	return nil
}

// parseLenient parses a displacement value, yielding zero on a bad
// line instead of rejecting it. Downstream consumers depend on partial
// uploads still producing a playable trajectory.
func parseLenient(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
