// Telemetry sampler
//
// Periodically reads the stage state and fans samples out to the
// attached sinks. Sampling is gated on at least one channel being
// enabled; the channel set is mutated from the control loop, so the
// sampler itself needs no locking as long as its timer runs on the
// same reactor.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import "stagectl/pkg/log"

// Interval is the sampling period in seconds.
const Interval = 0.1

// Source supplies the sampled quantities, in stage units.
type Source interface {
	PositionMm() float64
	VelocityMmS() float64
	AccelerationMmS2() float64
}

// Sink receives the sampled stream. A header announces the channel
// set; it is re-sent whenever the set changes.
type Sink interface {
	WriteHeader(channels []string)
	WriteSample(values []float64)
}

// Sampler owns the channel toggles and the header state.
type Sampler struct {
	log   *log.Logger
	src   Source
	sinks []Sink

	pos, vel, acc bool
	headerSent    bool
}

func NewSampler(src Source, sinks ...Sink) *Sampler {
	return &Sampler{
		log:   log.GetLogger("telemetry"),
		src:   src,
		sinks: sinks,
	}
}

// AddSink attaches another sink; the header is re-sent so the new
// sink learns the channel set.
func (s *Sampler) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
	s.headerSent = false
}

// Set replaces the channel toggles. Any change re-arms the header.
func (s *Sampler) Set(pos, vel, acc bool) {
	if pos == s.pos && vel == s.vel && acc == s.acc {
		return
	}
	s.pos, s.vel, s.acc = pos, vel, acc
	s.headerSent = false
}

// Channels returns the current toggles.
func (s *Sampler) Channels() (pos, vel, acc bool) {
	return s.pos, s.vel, s.acc
}

// Active reports whether any channel is enabled.
func (s *Sampler) Active() bool {
	return s.pos || s.vel || s.acc
}

// Tick samples once if any channel is enabled. Shaped as a reactor
// timer callback: returns the next wakeup time.
func (s *Sampler) Tick(eventtime float64) float64 {
	s.Sample()
	return eventtime + Interval
}

// Sample emits one row (and the header, if pending) to every sink.
func (s *Sampler) Sample() {
	if !s.Active() {
		return
	}

	channels := make([]string, 0, 3)
	values := make([]float64, 0, 3)
	if s.pos {
		channels = append(channels, "position")
		values = append(values, s.src.PositionMm())
	}
	if s.vel {
		channels = append(channels, "velocity")
		values = append(values, s.src.VelocityMmS())
	}
	if s.acc {
		channels = append(channels, "acceleration")
		values = append(values, s.src.AccelerationMmS2())
	}

	if !s.headerSent {
		for _, sink := range s.sinks {
			sink.WriteHeader(channels)
		}
		s.headerSent = true
	}
	for _, sink := range s.sinks {
		sink.WriteSample(values)
	}
}
