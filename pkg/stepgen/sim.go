package stepgen

import (
	"math"
	"sync"
)

// Sim is a host-side Generator backed by first-order constant-accel
// kinematics instead of real step pulses. It accelerates toward the
// cruise speed, decelerates when the remaining distance equals the
// stopping distance, and snaps to the target on crossing. Good enough
// for bench runs and deterministic tests; not a waveform model.
type Sim struct {
	mu sync.Mutex

	clock    func() float64
	lastTime float64
	started  bool

	pos      float64 // fractional steps
	target   int64
	maxSpeed float64 // steps/s
	accel    float64 // steps/s^2
	speed    float64 // signed steps/s

	invDir, invPulse, invEnable bool
}

// NewSim returns a Sim advancing against the given monotonic clock
// (seconds). Tests inject a manual clock for determinism.
func NewSim(clock func() float64) *Sim {
	return &Sim{clock: clock}
}

// SetMaxSpeed sets the cruise speed ceiling in steps/s.
func (s *Sim) SetMaxSpeed(stepsPerSec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSpeed = stepsPerSec
}

// SetAcceleration sets the acceleration in steps/s^2.
func (s *Sim) SetAcceleration(stepsPerSec2 float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accel = stepsPerSec2
}

// SetPinsInverted records the pin polarity map. The simulator has no
// physical pins; the map is kept for inspection.
func (s *Sim) SetPinsInverted(dir, pulse, enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invDir, s.invPulse, s.invEnable = dir, pulse, enable
}

// PinsInverted returns the recorded polarity map.
func (s *Sim) PinsInverted() (dir, pulse, enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invDir, s.invPulse, s.invEnable
}

// MoveTo sets the absolute step target.
func (s *Sim) MoveTo(target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

// SetCurrentPosition redefines the current position; the move is
// cancelled and speed zeroed, mirroring the real generator.
func (s *Sim) SetCurrentPosition(steps int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = float64(steps)
	s.target = steps
	s.speed = 0
}

// CurrentPosition returns the current position in steps.
func (s *Sim) CurrentPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(math.Round(s.pos))
}

// DistanceToGo returns remaining steps to the target.
func (s *Sim) DistanceToGo() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target - int64(math.Round(s.pos))
}

// Speed returns the current signed speed in steps/s.
func (s *Sim) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Run advances the simulation to the current clock time. Returns true
// while a move is still in progress.
func (s *Sim) Run() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if !s.started {
		s.started = true
		s.lastTime = now
		return s.target != int64(math.Round(s.pos))
	}
	dt := now - s.lastTime
	s.lastTime = now
	if dt <= 0 {
		return s.target != int64(math.Round(s.pos))
	}
	// Large gaps (paused process) are stepped at a bounded rate.
	if dt > 0.1 {
		dt = 0.1
	}

	dist := float64(s.target) - s.pos
	if dist == 0 && s.speed == 0 {
		return false
	}

	dir := 1.0
	if dist < 0 {
		dir = -1.0
	}

	accel := s.accel
	if accel <= 0 {
		// No ramp configured: jump straight to cruise speed.
		s.speed = dir * s.maxSpeed
	} else {
		stopping := s.speed * s.speed / (2 * accel)
		if math.Abs(dist) <= stopping && s.speed*dir > 0 {
			s.speed -= dir * accel * dt
		} else {
			s.speed += dir * accel * dt
		}
	}
	if s.speed > s.maxSpeed {
		s.speed = s.maxSpeed
	} else if s.speed < -s.maxSpeed {
		s.speed = -s.maxSpeed
	}

	s.pos += s.speed * dt

	// Snap on crossing the target so DistanceToGo reaches zero.
	rem := float64(s.target) - s.pos
	if rem*dir <= 0 {
		s.pos = float64(s.target)
		s.speed = 0
		return false
	}
	// Settle when the remainder rounds to zero steps and the ramp can
	// absorb the residual speed within a step; without this the
	// rounded DistanceToGo reports arrival while the integrator still
	// carries speed toward an uncrossed target.
	if accel > 0 && math.Abs(rem) < 0.5 && s.speed*s.speed/(2*accel) <= 1 {
		s.pos = float64(s.target)
		s.speed = 0
		return false
	}
	return true
}
