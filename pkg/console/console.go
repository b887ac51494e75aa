// Package console is the local control channel: a line-oriented
// command loop over any io.Reader/io.Writer pair, typically
// stdin/stdout or an open serial port. Unlike the wireless transport
// it delivers lines from a single goroutine, but it still hands them
// to the shared handler so both channels follow the same queue
// discipline.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"stagectl/pkg/log"
	"stagectl/pkg/serial"
)

// Handler receives one inbound command line. reply may be called from
// any goroutine.
type Handler func(line string, reply func(string))

// Console runs the local command loop.
type Console struct {
	log     *log.Logger
	r       io.Reader
	w       io.Writer
	handler Handler

	mu sync.Mutex // serializes writes from replies and telemetry
}

func New(r io.Reader, w io.Writer, handler Handler) *Console {
	return &Console{
		log:     log.GetLogger("console"),
		r:       r,
		w:       w,
		handler: handler,
	}
}

// Run reads command lines until EOF, a read error, or ctx is
// cancelled. Serial read timeouts are not errors; they just give the
// loop a chance to observe cancellation.
func (c *Console) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	var pending strings.Builder

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := c.r.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			for {
				text := pending.String()
				idx := strings.IndexByte(text, '\n')
				if idx < 0 {
					break
				}
				line := strings.TrimRight(text[:idx], "\r")
				pending.Reset()
				pending.WriteString(text[idx+1:])
				if line = strings.TrimSpace(line); line != "" {
					c.handler(line, c.SendLine)
				}
			}
		}
		if err != nil {
			if errors.Is(err, serial.ErrTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// SendLine writes one line to the console output.
func (c *Console) SendLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, line+"\n"); err != nil {
		c.log.WithError(err).Debug("console write failed")
	}
}

// Write implements io.Writer so the console can serve as a telemetry
// sink target, serialized against command replies.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}
