//go:build linux

package gpio

import (
	"github.com/stianeikeland/go-rpio/v4"
)

// OpenRpio maps /dev/gpiomem for the rpio-backed pins. Call CloseRpio
// on shutdown.
func OpenRpio() error {
	return rpio.Open()
}

// CloseRpio unmaps the GPIO range.
func CloseRpio() error {
	return rpio.Close()
}

// RpioInput reads a BCM GPIO pin with an internal pull-down.
type RpioInput struct {
	pin rpio.Pin
}

// NewRpioInput configures the given BCM pin as an input.
func NewRpioInput(bcm int) *RpioInput {
	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullDown()
	return &RpioInput{pin: pin}
}

// Read returns true when the pin is high.
func (p *RpioInput) Read() bool {
	return p.pin.Read() == rpio.High
}

// RpioOutput drives a BCM GPIO pin.
type RpioOutput struct {
	pin rpio.Pin
}

// NewRpioOutput configures the given BCM pin as an output, initially low.
func NewRpioOutput(bcm int) *RpioOutput {
	pin := rpio.Pin(bcm)
	pin.Output()
	pin.Low()
	return &RpioOutput{pin: pin}
}

// Set drives the pin high or low.
func (p *RpioOutput) Set(level bool) {
	if level {
		p.pin.High()
	} else {
		p.pin.Low()
	}
}

// OpenHardware maps the GPIO range and configures the three physical
// pins by BCM number. Call Close on shutdown.
func OpenHardware(enableBCM, switchBCM, indicatorBCM int) (*Hardware, error) {
	if err := OpenRpio(); err != nil {
		return nil, err
	}
	return &Hardware{
		Enable:    NewRpioOutput(enableBCM),
		Switch:    NewRpioInput(switchBCM),
		Indicator: NewRpioOutput(indicatorBCM),
	}, nil
}

// Close unmaps the GPIO range.
func (h *Hardware) Close() error {
	return CloseRpio()
}
