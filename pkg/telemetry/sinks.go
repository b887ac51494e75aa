// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConsoleSink writes telemetry in the console format: a "//"-prefixed
// header naming the channels, then one space-separated row per sample.
type ConsoleSink struct {
	W io.Writer
}

func (c *ConsoleSink) WriteHeader(channels []string) {
	fmt.Fprintf(c.W, "//%s\n", strings.Join(channels, ","))
}

func (c *ConsoleSink) WriteSample(values []float64) {
	fmt.Fprintln(c.W, joinValues(values, " "))
}

// Broadcaster is the outbound side of a fan-out transport.
type Broadcaster interface {
	Broadcast(line string)
}

// WirelessSink writes telemetry for remote clients: the same header
// line, then "T:"-prefixed comma-separated rows so clients can split
// telemetry from command responses.
type WirelessSink struct {
	B Broadcaster
}

func (w *WirelessSink) WriteHeader(channels []string) {
	w.B.Broadcast("//" + strings.Join(channels, ","))
}

func (w *WirelessSink) WriteSample(values []float64) {
	w.B.Broadcast("T:" + joinValues(values, ","))
}

func joinValues(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, sep)
}
