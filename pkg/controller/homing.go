// Homing sequencer
//
// Two-phase home-finding maneuver: a short forward move away from the
// switch, then a long backward sweep watching for the switch edge.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package controller

import (
	"stagectl/pkg/errors"
	"stagectl/pkg/metrics"
)

const (
	// homingSpeedMmS is the fixed sweep speed; acceleration is double.
	homingSpeedMmS = 10.0

	// homingForwardMm is the initial move away from the switch. The
	// first move is the same whether or not the switch already reads
	// triggered; backing off first guarantees a clean edge.
	homingForwardMm = 5.0

	// homingBackwardMm is the travel budget for finding the switch,
	// measured past the start position.
	homingBackwardMm = 200.0
)

type homingSequencer struct {
	c        *Controller
	phase    HomingPhase
	startPos int64
}

// start begins a homing attempt. Rejected if one is already running;
// any other active mode is cancelled first.
func (h *homingSequencer) start() error {
	c := h.c
	if c.mode == ModeHoming {
		return errors.New(errors.ErrHomingActive, "homing already in progress")
	}

	c.accelTest.active = false
	c.running = false
	c.enable.Set(false)

	h.startPos = c.gen.CurrentPosition()
	c.gen.SetMaxSpeed(c.conv.MmRateToSteps(homingSpeedMmS))
	c.gen.SetAcceleration(c.conv.MmRateToSteps(2 * homingSpeedMmS))
	c.enable.Set(true)
	c.gen.MoveTo(h.startPos + c.conv.MmToSteps(homingForwardMm))

	h.phase = PhaseMoveForward
	c.mode = ModeHoming
	c.log.WithField("start_steps", h.startPos).Info("homing started")
	return nil
}

// tick advances the sequencer one control-loop step. The switch edge
// itself is observed by Controller.pollSwitch, which moves the phase
// to PhaseComplete; this tick then performs the terminal cleanup.
func (h *homingSequencer) tick() {
	c := h.c
	switch h.phase {
	case PhaseMoveForward:
		if c.gen.DistanceToGo() == 0 {
			c.gen.MoveTo(h.startPos - c.conv.MmToSteps(homingBackwardMm))
			h.phase = PhaseMoveBackward
		}
	case PhaseMoveBackward:
		if c.gen.DistanceToGo() == 0 {
			// Travel budget exhausted without a switch edge.
			h.phase = PhaseFailed
		}
	case PhaseComplete:
		h.finish(true)
	case PhaseFailed:
		h.finish(false)
	}
}

// finish performs the terminal cleanup shared by both exits: drive
// disabled, configured motion profile restored, mode back to Idle.
func (h *homingSequencer) finish(ok bool) {
	c := h.c
	c.enable.Set(false)
	c.restoreProfile()
	c.mode = ModeIdle
	h.phase = PhaseIdle

	if ok {
		metrics.Default.Counter("homing_complete_total").Inc()
		c.log.Info("homing complete")
		c.notify("HOME:OK")
	} else {
		metrics.Default.Counter("homing_failed_total").Inc()
		c.log.Error("homing failed: switch not found within travel budget")
		c.notify("HOME:FAILED")
	}
}

// cancel aborts an in-progress attempt without reporting an outcome.
func (h *homingSequencer) cancel() {
	c := h.c
	if c.mode != ModeHoming {
		return
	}
	h.phase = PhaseIdle
	c.mode = ModeIdle
	c.enable.Set(false)
	c.restoreProfile()
	c.log.Warn("homing cancelled")
}
