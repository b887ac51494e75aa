package stepgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// manualClock drives the sim deterministically.
type manualClock struct {
	now float64
}

func (c *manualClock) advance(dt float64) { c.now += dt }
func (c *manualClock) read() float64      { return c.now }

// runUntilDone ticks the sim until the move completes or the step
// budget is exhausted.
func runUntilDone(t *testing.T, s *Sim, clk *manualClock, maxTicks int) int {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		clk.advance(0.005)
		s.Run()
		if s.DistanceToGo() == 0 {
			return i
		}
	}
	t.Fatalf("move did not complete within %d ticks (pos=%d target-dist=%d)",
		maxTicks, s.CurrentPosition(), s.DistanceToGo())
	return 0
}

func TestSimReachesTarget(t *testing.T) {
	clk := &manualClock{}
	s := NewSim(clk.read)
	s.SetMaxSpeed(8000)
	s.SetAcceleration(16000)
	s.Run() // prime the clock

	s.MoveTo(16000)
	runUntilDone(t, s, clk, 10000)
	assert.Equal(t, int64(16000), s.CurrentPosition())
	assert.Equal(t, 0.0, s.Speed())
}

func TestSimBackwardMove(t *testing.T) {
	clk := &manualClock{}
	s := NewSim(clk.read)
	s.SetMaxSpeed(8000)
	s.SetAcceleration(16000)
	s.Run()

	s.MoveTo(-3200)
	runUntilDone(t, s, clk, 10000)
	assert.Equal(t, int64(-3200), s.CurrentPosition())
	assert.Equal(t, 0.0, s.Speed())
}

func TestSimSettlesAtArrival(t *testing.T) {
	// Arrival must be quiescent: once DistanceToGo reports zero the
	// integrator carries no residual speed, so a mode tick observing
	// arrival sees a generator it can immediately re-target.
	clk := &manualClock{}
	s := NewSim(clk.read)
	s.SetMaxSpeed(8000)
	s.SetAcceleration(16000)
	s.Run()

	s.MoveTo(16000)
	runUntilDone(t, s, clk, 10000)
	assert.Equal(t, 0.0, s.Speed())
	assert.Equal(t, int64(0), s.DistanceToGo())

	// And the next tick stays put.
	clk.advance(0.005)
	s.Run()
	assert.Equal(t, int64(16000), s.CurrentPosition())
	assert.Equal(t, 0.0, s.Speed())
}

func TestSimSetCurrentPositionCancelsMove(t *testing.T) {
	clk := &manualClock{}
	s := NewSim(clk.read)
	s.SetMaxSpeed(8000)
	s.SetAcceleration(16000)
	s.Run()

	s.MoveTo(10000)
	clk.advance(0.05)
	s.Run()
	assert.NotEqual(t, int64(0), s.DistanceToGo())

	s.SetCurrentPosition(0)
	assert.Equal(t, int64(0), s.CurrentPosition())
	assert.Equal(t, int64(0), s.DistanceToGo())
	assert.Equal(t, 0.0, s.Speed())
}

func TestSimRespectsMaxSpeed(t *testing.T) {
	clk := &manualClock{}
	s := NewSim(clk.read)
	s.SetMaxSpeed(1000)
	s.SetAcceleration(1e9)
	s.Run()

	s.MoveTo(100000)
	clk.advance(0.01)
	s.Run()
	assert.LessOrEqual(t, s.Speed(), 1000.0)
}

func TestSimPinsInverted(t *testing.T) {
	s := NewSim(func() float64 { return 0 })
	s.SetPinsInverted(true, false, true)
	dir, pulse, enable := s.PinsInverted()
	assert.True(t, dir)
	assert.False(t, pulse)
	assert.True(t, enable)
}
