//go:build linux

package serial

import "golang.org/x/sys/unix"

// setSpeed programs the baud rate fields of a Linux termios.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = speed
	termios.Ospeed = speed
}
