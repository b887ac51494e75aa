// Package gpio abstracts the digital I/O the controller touches: the
// drive enable line, the homing limit switch, and the status indicator.
package gpio

import "sync"

// Input is a readable digital line.
type Input interface {
	Read() bool
}

// Output is a writable digital line.
type Output interface {
	Set(level bool)
}

// EnableLine wraps the drive enable output and applies the configured
// polarity so callers think in terms of enabled/disabled.
type EnableLine struct {
	mu      sync.Mutex
	pin     Output
	invert  bool
	enabled bool
}

// NewEnableLine returns an EnableLine over pin. With invert set, the
// physical level is low while enabled. The disabled level is driven
// immediately so an inverted line never floats at the enabled level
// before the first Set.
func NewEnableLine(pin Output, invert bool) *EnableLine {
	e := &EnableLine{pin: pin, invert: invert}
	e.pin.Set(e.enabled != e.invert)
	return e
}

// SetInvert updates the polarity and rewrites the physical level to
// keep the logical state.
func (e *EnableLine) SetInvert(invert bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invert = invert
	e.pin.Set(e.enabled != e.invert)
}

// Set drives the line to the given logical state.
func (e *EnableLine) Set(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
	e.pin.Set(enabled != e.invert)
}

// Enabled returns the logical state last written.
func (e *EnableLine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// FakeInput is an in-memory Input for tests and bench runs.
type FakeInput struct {
	mu    sync.Mutex
	level bool
}

// Read returns the current level.
func (f *FakeInput) Read() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// SetLevel sets the level observed by subsequent reads.
func (f *FakeInput) SetLevel(level bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
}

// FakeOutput is an in-memory Output for tests and bench runs.
type FakeOutput struct {
	mu    sync.Mutex
	level bool
}

// Set records the level.
func (f *FakeOutput) Set(level bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
}

// Level returns the last written level.
func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}
