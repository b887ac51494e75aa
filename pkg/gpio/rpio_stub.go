//go:build !linux

package gpio

import "errors"

// OpenHardware is only available on Linux, where the memory-mapped
// GPIO interface exists.
func OpenHardware(enableBCM, switchBCM, indicatorBCM int) (*Hardware, error) {
	return nil, errors.New("gpio: hardware pins require linux")
}

func (h *Hardware) Close() error {
	return nil
}
