//go:build darwin

package serial

import "golang.org/x/sys/unix"

// setSpeed programs the baud rate fields of a Darwin termios.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = uint64(speed)
	termios.Ospeed = uint64(speed)
}
