// Mode coordinator for the linear stage
//
// One Controller owns all mutable motion state: the operating mode,
// the persisted config record, the trajectory store, and the homing
// and accel-test sub-machines. Everything here runs on the reactor
// dispatch goroutine; transports inject commands through Enqueue and
// never touch state directly.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package controller

import (
	"fmt"
	"math"

	"stagectl/pkg/config"
	"stagectl/pkg/errors"
	"stagectl/pkg/gpio"
	"stagectl/pkg/log"
	"stagectl/pkg/metrics"
	"stagectl/pkg/stepgen"
	"stagectl/pkg/trajectory"
	"stagectl/pkg/units"
)

const (
	// TickInterval is the control-loop period in seconds.
	TickInterval = 0.005

	// endpointToleranceMm is how close to an oscillation endpoint
	// counts as "arrived". Step/mm rounding rarely lands on the exact
	// target, so exact equality would stall the oscillation.
	endpointToleranceMm = 0.1

	// commandsPerTick bounds how many queued commands one tick drains.
	commandsPerTick = 8

	// playbackAccelFactor scales the configured acceleration during
	// playback so the stage can track the sampled trajectory.
	playbackAccelFactor = 2.0
)

// Options configures a Controller.
type Options struct {
	Log         *log.Logger
	Config      config.Record
	ConfigStore config.Store
	Trajectory  *trajectory.Store
	Generator   stepgen.Generator
	Enable      *gpio.EnableLine
	HomeSwitch  gpio.Input
	Indicator   gpio.Output
	Clock       func() float64
	Notify      func(string)
}

// Controller is the top-level motion-mode state machine.
type Controller struct {
	log  *log.Logger
	cfg  config.Record
	cfgS config.Store
	conv units.Converter
	traj *trajectory.Store

	gen        stepgen.Generator
	enable     *gpio.EnableLine
	homeSwitch gpio.Input
	indicator  gpio.Output
	clock      func() float64
	notify     func(string)

	mode            OperatingMode
	running         bool
	playbackEnabled bool
	playbackStart   float64

	homing    homingSequencer
	accelTest accelTest

	lastSwitch bool

	queue chan func()
}

// New creates a Controller. The generator is programmed with the
// record's pin polarity immediately; speeds are applied on START.
func New(opts Options) *Controller {
	c := &Controller{
		log:        opts.Log,
		cfg:        opts.Config,
		cfgS:       opts.ConfigStore,
		conv:       units.New(opts.Config.MicrostepsPerRev, opts.Config.ScrewPitchMm),
		traj:       opts.Trajectory,
		gen:        opts.Generator,
		enable:     opts.Enable,
		homeSwitch: opts.HomeSwitch,
		indicator:  opts.Indicator,
		clock:      opts.Clock,
		notify:     opts.Notify,
		queue:      make(chan func(), 64),
	}
	if c.log == nil {
		c.log = log.GetLogger("controller")
	}
	if c.notify == nil {
		c.notify = func(string) {}
	}
	c.homing.c = c
	c.accelTest.c = c
	c.lastSwitch = c.homeSwitch.Read()
	c.gen.SetPinsInverted(c.cfg.InvertDir, c.cfg.InvertPulse, c.cfg.InvertEnable)
	return c
}

// Enqueue schedules fn to run on the control loop. Safe from any
// goroutine. Returns false if the queue is full; the caller should
// report the command as dropped.
func (c *Controller) Enqueue(fn func()) bool {
	select {
	case c.queue <- fn:
		return true
	default:
		metrics.Default.Counter("commands_dropped_total").Inc()
		return false
	}
}

// Tick advances the controller one control-loop step: drain a bounded
// batch of commands, poll the homing switch, run the active mode, and
// advance the generator.
func (c *Controller) Tick(eventtime float64) {
	metrics.Default.Counter("ticks_total").Inc()

drain:
	for i := 0; i < commandsPerTick; i++ {
		select {
		case fn := <-c.queue:
			fn()
		default:
			break drain
		}
	}

	c.pollSwitch()

	switch c.mode {
	case ModeHoming:
		c.homing.tick()
	case ModeAccelTest:
		c.accelTest.tick()
	case ModePlayback:
		c.playbackTick(eventtime)
	case ModeIdle:
		if c.running {
			c.oscillateTick()
		}
	}

	c.gen.Run()

	if c.indicator != nil {
		c.indicator.Set(c.running || c.mode != ModeIdle)
	}
}

// Mode returns the active operating mode.
func (c *Controller) Mode() OperatingMode {
	return c.mode
}

// Running reports whether the oscillation/playback master flag is set.
func (c *Controller) Running() bool {
	return c.running
}

// PlaybackEnabled reports whether START selects playback.
func (c *Controller) PlaybackEnabled() bool {
	return c.playbackEnabled
}

// HomingPhase returns the homing sub-state.
func (c *Controller) HomingPhase() HomingPhase {
	return c.homing.phase
}

// Trajectory returns the historic-trajectory store.
func (c *Controller) Trajectory() *trajectory.Store {
	return c.traj
}

// ConfigRecord returns a copy of the active config record.
func (c *Controller) ConfigRecord() config.Record {
	return c.cfg
}

// ApplyConfig mutates the config record, validates it, re-applies the
// derived state (unit converter, pin polarity), and persists the full
// record synchronously. On validation failure the previous record is
// kept and nothing is written.
func (c *Controller) ApplyConfig(mutate func(*config.Record)) error {
	next := c.cfg
	mutate(&next)
	if err := next.Validate(); err != nil {
		return err
	}

	c.cfg = next
	c.conv = units.New(next.MicrostepsPerRev, next.ScrewPitchMm)
	c.gen.SetPinsInverted(next.InvertDir, next.InvertPulse, next.InvertEnable)
	c.enable.SetInvert(next.InvertEnable)

	if err := c.cfgS.Save(next); err != nil {
		c.log.WithError(err).Error("config save failed")
		return err
	}
	return nil
}

// SetNotify replaces the status-notification callback. Call before
// the control loop starts ticking.
func (c *Controller) SetNotify(notify func(string)) {
	if notify == nil {
		notify = func(string) {}
	}
	c.notify = notify
}

// SetPlaybackEnabled selects whether START plays the stored trajectory
// or oscillates.
func (c *Controller) SetPlaybackEnabled(enabled bool) {
	c.playbackEnabled = enabled
}

// Start activates the mode implied by the current flags: playback if
// enabled, plain oscillation otherwise. Rejected while an accel test
// is running; an in-progress homing attempt is cancelled first.
func (c *Controller) Start() error {
	if c.mode == ModeAccelTest {
		return errors.New(errors.ErrCommandBusy, "acceleration test running")
	}
	if c.mode == ModeHoming {
		c.homing.cancel()
	}

	c.running = true
	c.gen.SetMaxSpeed(c.conv.MmRateToSteps(c.cfg.MaxVelocityMmS))
	if c.playbackEnabled {
		c.mode = ModePlayback
		c.playbackStart = c.clock()
		c.gen.SetAcceleration(c.conv.MmRateToSteps(playbackAccelFactor * c.cfg.AccelerationMmS2))
		c.log.WithField("duration", c.traj.Duration()).Info("playback started")
	} else {
		c.mode = ModeIdle
		c.gen.SetAcceleration(c.conv.MmRateToSteps(c.cfg.AccelerationMmS2))
		c.log.Info("oscillation started")
	}
	c.enable.Set(true)
	return nil
}

// StopAll cancels whichever mode is active and lowers the enable line.
// Idempotent: the motor is disabled on any stop, including plain
// oscillation, to avoid idle heating.
func (c *Controller) StopAll() {
	if c.mode == ModeHoming {
		c.homing.cancel()
	}
	c.accelTest.active = false
	c.mode = ModeIdle
	c.running = false
	c.enable.Set(false)
}

// StartHoming delegates to the homing sequencer.
func (c *Controller) StartHoming() error {
	return c.homing.start()
}

// StartAccelTest begins the back-and-forth acceleration test.
func (c *Controller) StartAccelTest(distanceMm, accelMmS2 float64) error {
	return c.accelTest.start(distanceMm, accelMmS2)
}

// oscillateTick bounces the stage between the two configured
// endpoints. Runs only when no other mode claims the loop.
func (c *Controller) oscillateTick() {
	if c.gen.DistanceToGo() != 0 {
		return
	}

	cur := c.conv.StepsToMm(c.gen.CurrentPosition())
	target := c.cfg.Position2Mm
	if math.Abs(cur-c.cfg.Position2Mm) <= endpointToleranceMm {
		target = c.cfg.Position1Mm
	}
	c.gen.MoveTo(c.conv.MmToSteps(target))
	c.notify(fmt.Sprintf("MOVE:%g", target))
}

// playbackTick replays the stored trajectory at native speed, then
// stops the drive and reports completion.
func (c *Controller) playbackTick(eventtime float64) {
	elapsed := eventtime - c.playbackStart
	if c.traj.Count() < 2 || elapsed > c.traj.Duration() {
		c.mode = ModeIdle
		c.running = false
		c.enable.Set(false)
		metrics.Default.Counter("playback_complete_total").Inc()
		c.log.Info("playback complete")
		c.notify("PLAYBACK:DONE")
		return
	}
	c.gen.MoveTo(c.conv.MmToSteps(c.traj.Interpolate(elapsed)))
}

// pollSwitch runs the homing-switch edge detection every tick
// regardless of phase. A rising edge during the backward homing move
// completes the homing attempt; any other rising edge re-zeroes the
// position reference and, if motion is active, forces a stop across
// all modes (safety interlock, not homing-specific).
func (c *Controller) pollSwitch() {
	level := c.homeSwitch.Read()
	rising := level && !c.lastSwitch
	c.lastSwitch = level
	if !rising {
		return
	}

	if c.mode == ModeHoming && c.homing.phase == PhaseMoveBackward {
		c.gen.SetCurrentPosition(0)
		c.homing.phase = PhaseComplete
		return
	}

	c.gen.SetCurrentPosition(0)
	if c.running || c.mode != ModeIdle {
		metrics.Default.Counter("switch_stops_total").Inc()
		c.log.Warn("homing switch tripped outside homing, stopping all modes")
		c.StopAll()
		c.notify("STOP:SWITCH")
	}
}

// restoreProfile reprograms the generator with the configured speed
// and acceleration after a sub-machine used its own values.
func (c *Controller) restoreProfile() {
	c.gen.SetMaxSpeed(c.conv.MmRateToSteps(c.cfg.MaxVelocityMmS))
	c.gen.SetAcceleration(c.conv.MmRateToSteps(c.cfg.AccelerationMmS2))
}

// PositionMm returns the current stage position.
func (c *Controller) PositionMm() float64 {
	return c.conv.StepsToMm(c.gen.CurrentPosition())
}

// VelocityMmS returns the current stage velocity.
func (c *Controller) VelocityMmS() float64 {
	return c.gen.Speed() / c.conv.StepsPerMm()
}

// AccelerationMmS2 synthesizes an acceleration estimate: the signed
// test acceleration during an accel test, the second numerical
// derivative of the interpolated trajectory during playback, and the
// configured value otherwise. An approximation, not a sensor reading.
func (c *Controller) AccelerationMmS2() float64 {
	switch c.mode {
	case ModeAccelTest:
		if c.accelTest.forward {
			return c.accelTest.accelMmS2
		}
		return -c.accelTest.accelMmS2
	case ModePlayback:
		if c.traj.Count() >= 3 {
			const h = 0.01
			t := c.clock() - c.playbackStart
			return (c.traj.Interpolate(t+h) - 2*c.traj.Interpolate(t) + c.traj.Interpolate(t-h)) / (h * h)
		}
	}
	return c.cfg.AccelerationMmS2
}
