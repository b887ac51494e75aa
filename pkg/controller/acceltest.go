// Acceleration-test oscillator
//
// Back-and-forth motion with a single constant acceleration, reversing
// at each endpoint. The test acceleration may differ from the
// configured one, so it is re-applied to the generator every tick.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package controller

import (
	"stagectl/pkg/errors"
)

type accelTest struct {
	c          *Controller
	active     bool
	distanceMm float64
	accelMmS2  float64
	forward    bool
	anchor     int64 // steps, captured at start
}

// start captures the current position as the anchor and begins moving
// forward by distanceMm. Playback is disabled for the duration.
func (a *accelTest) start(distanceMm, accelMmS2 float64) error {
	c := a.c
	if distanceMm < 0 {
		return errors.Newf(errors.ErrCommandParse, "negative test distance %g", distanceMm)
	}
	if accelMmS2 <= 0 {
		return errors.Newf(errors.ErrCommandParse, "non-positive test acceleration %g", accelMmS2)
	}
	if c.mode == ModeHoming {
		c.homing.cancel()
	}

	c.playbackEnabled = false
	c.running = false

	a.anchor = c.gen.CurrentPosition()
	a.distanceMm = distanceMm
	a.accelMmS2 = accelMmS2
	a.forward = true
	a.active = true

	c.gen.SetMaxSpeed(c.conv.MmRateToSteps(c.cfg.MaxVelocityMmS))
	c.gen.SetAcceleration(c.conv.MmRateToSteps(accelMmS2))
	c.enable.Set(true)
	c.gen.MoveTo(a.anchor + c.conv.MmToSteps(distanceMm))
	c.mode = ModeAccelTest

	c.log.WithField("distance", distanceMm).
		WithField("accel", accelMmS2).Info("acceleration test started")
	return nil
}

// tick re-applies the test acceleration and reverses at each endpoint:
// back to the anchor after a forward leg, out to anchor+distance after
// a backward leg.
func (a *accelTest) tick() {
	c := a.c
	if !a.active {
		return
	}

	c.gen.SetAcceleration(c.conv.MmRateToSteps(a.accelMmS2))

	if c.gen.DistanceToGo() != 0 {
		return
	}
	a.forward = !a.forward
	if a.forward {
		c.gen.MoveTo(a.anchor + c.conv.MmToSteps(a.distanceMm))
	} else {
		c.gen.MoveTo(a.anchor)
	}
}
