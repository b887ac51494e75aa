// Package stepgen defines the step-pulse generator collaborator.
//
// The generator owns physical motion: it accepts step-space targets,
// speeds, and accelerations, and executes the trapezoidal profile
// itself. The controller re-commands it every control-loop tick and
// only observes position and pending distance.
package stepgen

// Generator is the interface the motion controller programs against.
// All values are in steps (or steps/s, steps/s^2); unit conversion
// happens in pkg/units before any call here.
type Generator interface {
	// SetMaxSpeed sets the cruise speed ceiling in steps/s.
	SetMaxSpeed(stepsPerSec float64)

	// SetAcceleration sets the acceleration in steps/s^2.
	SetAcceleration(stepsPerSec2 float64)

	// SetPinsInverted sets the polarity of the direction, step pulse,
	// and enable outputs.
	SetPinsInverted(dir, pulse, enable bool)

	// MoveTo sets the absolute step target of the current move.
	MoveTo(target int64)

	// SetCurrentPosition redefines the current position as the given
	// step count. The pending move is cancelled and speed is zeroed.
	SetCurrentPosition(steps int64)

	// CurrentPosition returns the current position in steps.
	CurrentPosition() int64

	// DistanceToGo returns the remaining steps to the target.
	DistanceToGo() int64

	// Speed returns the current signed speed in steps/s.
	Speed() float64

	// Run advances one tick of physical motion. Non-blocking; returns
	// true while a move is still in progress.
	Run() bool
}
