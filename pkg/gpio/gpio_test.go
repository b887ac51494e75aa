package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnableLine(t *testing.T) {
	pin := &FakeOutput{}
	e := NewEnableLine(pin, false)

	e.Set(true)
	assert.True(t, e.Enabled())
	assert.True(t, pin.Level())

	e.Set(false)
	assert.False(t, e.Enabled())
	assert.False(t, pin.Level())
}

func TestEnableLineDrivesDisabledLevelAtConstruction(t *testing.T) {
	pin := &FakeOutput{}
	NewEnableLine(pin, false)
	assert.False(t, pin.Level())

	inverted := &FakeOutput{}
	NewEnableLine(inverted, true)
	assert.True(t, inverted.Level())
}

func TestEnableLineInverted(t *testing.T) {
	pin := &FakeOutput{}
	e := NewEnableLine(pin, true)

	e.Set(true)
	assert.True(t, e.Enabled())
	assert.False(t, pin.Level())

	e.Set(false)
	assert.True(t, pin.Level())
}

func TestEnableLineSetInvertRewritesLevel(t *testing.T) {
	pin := &FakeOutput{}
	e := NewEnableLine(pin, false)
	e.Set(true)
	assert.True(t, pin.Level())

	// Flipping polarity while enabled keeps the logical state.
	e.SetInvert(true)
	assert.True(t, e.Enabled())
	assert.False(t, pin.Level())
}

func TestFakeInput(t *testing.T) {
	in := &FakeInput{}
	assert.False(t, in.Read())
	in.SetLevel(true)
	assert.True(t, in.Read())
}
