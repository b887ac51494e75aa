package controller

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagectl/pkg/config"
	"stagectl/pkg/gpio"
	"stagectl/pkg/stepgen"
	"stagectl/pkg/trajectory"
)

// fixture wires a Controller to the simulated generator, fake pins,
// and a manual clock.
type fixture struct {
	t         *testing.T
	now       float64
	ctl       *Controller
	sim       *stepgen.Sim
	sw        *gpio.FakeInput
	enablePin *gpio.FakeOutput
	store     *config.FileStore
	notices   []string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t}
	f.sim = stepgen.NewSim(func() float64 { return f.now })
	f.sw = &gpio.FakeInput{}
	f.enablePin = &gpio.FakeOutput{}
	f.store = config.NewFileStore(filepath.Join(t.TempDir(), "stage.yaml"))

	f.ctl = New(Options{
		Config:      config.Defaults(),
		ConfigStore: f.store,
		Trajectory:  trajectory.NewStore(),
		Generator:   f.sim,
		Enable:      gpio.NewEnableLine(f.enablePin, false),
		HomeSwitch:  f.sw,
		Indicator:   &gpio.FakeOutput{},
		Clock:       func() float64 { return f.now },
		Notify:      func(s string) { f.notices = append(f.notices, s) },
	})
	return f
}

// tick advances time one control-loop period and runs the controller.
func (f *fixture) tick() {
	f.now += TickInterval
	f.ctl.Tick(f.now)
}

// tickUntilArrived runs ticks until the generator reports no pending
// distance at the start of a tick.
func (f *fixture) tickUntilArrived(maxTicks int) {
	f.t.Helper()
	for i := 0; i < maxTicks; i++ {
		f.tick()
		if f.sim.DistanceToGo() == 0 {
			return
		}
	}
	f.t.Fatalf("move did not complete within %d ticks (dist=%d)", maxTicks, f.sim.DistanceToGo())
}

func TestStartOscillatesBetweenEndpoints(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Start())
	assert.True(t, f.ctl.Running())
	assert.True(t, f.enablePin.Level())

	// Defaults: 1600 microsteps, 5 mm pitch, pos2 = 50 mm.
	f.tick()
	assert.Equal(t, int64(16000), f.sim.CurrentPosition()+f.sim.DistanceToGo())

	f.tickUntilArrived(20000)
	assert.Equal(t, int64(16000), f.sim.CurrentPosition())

	// Arrived within tolerance of pos2: next target is pos1 (0 steps).
	f.tick()
	assert.Equal(t, int64(0), f.sim.CurrentPosition()+f.sim.DistanceToGo())
}

func TestStopIsIdempotentAndDisablesDrive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Start())
	f.tick()

	f.ctl.StopAll()
	assert.False(t, f.ctl.Running())
	assert.Equal(t, ModeIdle, f.ctl.Mode())
	assert.False(t, f.enablePin.Level())

	f.ctl.StopAll()
	assert.False(t, f.enablePin.Level())
}

func TestAccelTestFlipsDirectionAtEndpoint(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.StartAccelTest(50, 25))
	assert.Equal(t, ModeAccelTest, f.ctl.Mode())
	assert.True(t, f.enablePin.Level())
	assert.Equal(t, 25.0, f.ctl.AccelerationMmS2())

	// Move out to anchor+50mm = 16000 steps.
	f.tickUntilArrived(40000)
	assert.Equal(t, int64(16000), f.sim.CurrentPosition())

	// Next tick flips direction and targets the anchor.
	f.tick()
	assert.Equal(t, int64(0), f.sim.CurrentPosition()+f.sim.DistanceToGo())
	assert.Equal(t, -25.0, f.ctl.AccelerationMmS2())
}

func TestAccelTestRejectsBadParams(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.ctl.StartAccelTest(-1, 25))
	assert.Error(t, f.ctl.StartAccelTest(10, 0))
	assert.Equal(t, ModeIdle, f.ctl.Mode())
}

func TestStartRejectedWhileAccelTestRunning(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.StartAccelTest(50, 25))

	err := f.ctl.Start()
	assert.Error(t, err)
	assert.Equal(t, ModeAccelTest, f.ctl.Mode())
}

func TestModesAreMutuallyExclusive(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Start())
	assert.True(t, f.ctl.Running())

	require.NoError(t, f.ctl.StartAccelTest(10, 5))
	assert.Equal(t, ModeAccelTest, f.ctl.Mode())
	assert.False(t, f.ctl.Running())

	require.NoError(t, f.ctl.StartHoming())
	assert.Equal(t, ModeHoming, f.ctl.Mode())

	f.ctl.StopAll()
	assert.Equal(t, ModeIdle, f.ctl.Mode())
	assert.False(t, f.enablePin.Level())
}

func TestPlaybackFollowsTrajectoryAndCompletes(t *testing.T) {
	f := newFixture(t)
	f.ctl.Trajectory().SetSamples([]float64{0.0, 1.0, 2.0})

	f.ctl.SetPlaybackEnabled(true)
	require.NoError(t, f.ctl.Start())
	assert.Equal(t, ModePlayback, f.ctl.Mode())

	// Ten ticks in, elapsed = 0.05 s: target is sample[1] = 1.0 mm.
	// Tick-time accumulation can land a hair either side of the grid
	// point, so allow one step of truncation slack.
	for i := 0; i < 10; i++ {
		f.tick()
	}
	assert.InDelta(t, 320, float64(f.sim.CurrentPosition()+f.sim.DistanceToGo()), 1)

	// Past the 0.10 s duration the playback stops and reports.
	for i := 0; i < 15; i++ {
		f.tick()
	}
	assert.Equal(t, ModeIdle, f.ctl.Mode())
	assert.False(t, f.ctl.Running())
	assert.False(t, f.enablePin.Level())
	assert.Contains(t, f.notices, "PLAYBACK:DONE")
}

func TestPlaybackWithNoTrajectoryStopsImmediately(t *testing.T) {
	f := newFixture(t)
	f.ctl.SetPlaybackEnabled(true)
	require.NoError(t, f.ctl.Start())

	f.tick()
	assert.Equal(t, ModeIdle, f.ctl.Mode())
	assert.False(t, f.enablePin.Level())
}

func TestSwitchEdgeOutsideHomingStopsAndZeroes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Start())
	f.tick()
	f.tickUntilArrived(20000)
	assert.NotEqual(t, int64(0), f.sim.CurrentPosition())

	f.sw.SetLevel(true)
	f.tick()
	assert.Equal(t, int64(0), f.sim.CurrentPosition())
	assert.Equal(t, ModeIdle, f.ctl.Mode())
	assert.False(t, f.ctl.Running())
	assert.False(t, f.enablePin.Level())
	assert.Contains(t, f.notices, "STOP:SWITCH")
}

func TestSwitchEdgeWhileIdleOnlyZeroes(t *testing.T) {
	f := newFixture(t)
	f.sim.SetCurrentPosition(5000)

	f.sw.SetLevel(true)
	f.tick()
	assert.Equal(t, int64(0), f.sim.CurrentPosition())
	assert.NotContains(t, f.notices, "STOP:SWITCH")
}

func TestApplyConfigPersists(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.ApplyConfig(func(r *config.Record) { r.Position2Mm = 75.0 })
	require.NoError(t, err)
	assert.Equal(t, 75.0, f.ctl.ConfigRecord().Position2Mm)

	stored, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, 75.0, stored.Position2Mm)
}

func TestApplyConfigRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.ApplyConfig(func(r *config.Record) { r.MicrostepsPerRev = 0 })
	assert.Error(t, err)
	assert.Equal(t, 1600, f.ctl.ConfigRecord().MicrostepsPerRev)

	// Nothing was persisted.
	_, err = f.store.Load()
	assert.Error(t, err)
}

func TestEnqueueRunsOnTick(t *testing.T) {
	f := newFixture(t)

	ran := false
	require.True(t, f.ctl.Enqueue(func() { ran = true }))
	assert.False(t, ran)

	f.tick()
	assert.True(t, ran)
}

func TestEnqueueFullQueue(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 64; i++ {
		require.True(t, f.ctl.Enqueue(func() {}))
	}
	assert.False(t, f.ctl.Enqueue(func() {}))
}
