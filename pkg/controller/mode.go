package controller

// OperatingMode selects which motion behavior owns the control loop.
// Exactly one is active; entering one cancels any other in progress.
type OperatingMode int

const (
	// ModeIdle covers both a stopped stage and plain oscillation;
	// oscillation is the implicit behavior while the running flag is
	// set and no other mode claims the loop.
	ModeIdle OperatingMode = iota

	// ModePlayback replays the stored trajectory at native speed.
	ModePlayback

	// ModeAccelTest runs the back-and-forth constant-acceleration test.
	ModeAccelTest

	// ModeHoming runs the two-phase home-finding maneuver.
	ModeHoming
)

// String returns the mode name.
func (m OperatingMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePlayback:
		return "playback"
	case ModeAccelTest:
		return "acceltest"
	case ModeHoming:
		return "homing"
	default:
		return "unknown"
	}
}

// HomingPhase is the homing sub-state, valid only while the operating
// mode is ModeHoming.
type HomingPhase int

const (
	PhaseIdle HomingPhase = iota
	PhaseMoveForward
	PhaseMoveBackward
	PhaseComplete
	PhaseFailed
)

// String returns the phase name.
func (p HomingPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMoveForward:
		return "forward"
	case PhaseMoveBackward:
		return "backward"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}
