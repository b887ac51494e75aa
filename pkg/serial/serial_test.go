package serial

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate)
	assert.True(t, cfg.RTSOnConnect)
	assert.True(t, cfg.DTROnConnect)
}

func TestOpenRequiresDevice(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(Config{Device: "/dev/does-not-exist-12345"})
	assert.Error(t, err)
}

func TestBaudRateToSpeed(t *testing.T) {
	speed, custom, err := baudRateToSpeed(115200)
	assert.NoError(t, err)
	assert.Equal(t, uint32(unix.B115200), speed)
	assert.Equal(t, 0, custom)

	speed, custom, err = baudRateToSpeed(9600)
	assert.NoError(t, err)
	assert.Equal(t, uint32(unix.B9600), speed)
	assert.Equal(t, 0, custom)

	if runtime.GOOS == "linux" {
		// Arbitrary rates go through BOTHER.
		speed, custom, err = baudRateToSpeed(250000)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0x1000|250000), speed)
		assert.Equal(t, 0, custom)
	}
}

func TestListPortsDoesNotError(t *testing.T) {
	_, err := ListPorts()
	assert.NoError(t, err)
}

func TestResolveDevicePassthrough(t *testing.T) {
	dev, err := ResolveDevice("/dev/ttyUSB0")
	assert.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", dev)
}

func TestIsDeviceAvailableMissing(t *testing.T) {
	assert.False(t, IsDeviceAvailable("/dev/does-not-exist-12345"))
}
