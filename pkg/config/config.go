// Package config holds the persisted motion-parameter record.
//
// The record is loaded once at startup, mutated field by field from the
// command router, and written back synchronously on every change before
// the mutating command is acknowledged.
package config

import (
	"fmt"

	"stagectl/pkg/errors"
)

// Record is the persisted motion-parameter set.
type Record struct {
	MicrostepsPerRev int     `yaml:"microsteps_per_rev"`
	ScrewPitchMm     float64 `yaml:"screw_pitch_mm"`
	AccelerationMmS2 float64 `yaml:"acceleration_mm_s2"`
	MaxVelocityMmS   float64 `yaml:"max_velocity_mm_s"`
	Position1Mm      float64 `yaml:"position1_mm"`
	Position2Mm      float64 `yaml:"position2_mm"`
	InvertPulse      bool    `yaml:"invert_pulse"`
	InvertDir        bool    `yaml:"invert_dir"`
	InvertEnable     bool    `yaml:"invert_enable"`
}

// Defaults returns the built-in record used on first run or when the
// stored record cannot be loaded.
func Defaults() Record {
	return Record{
		MicrostepsPerRev: 1600,
		ScrewPitchMm:     5.0,
		AccelerationMmS2: 50.0,
		MaxVelocityMmS:   25.0,
		Position1Mm:      0.0,
		Position2Mm:      50.0,
	}
}

// Validate checks the record invariants. Microsteps and pitch must be
// positive or the mm/step conversion divides by zero.
func (r Record) Validate() error {
	if r.MicrostepsPerRev <= 0 {
		return errors.Newf(errors.ErrConfigValue,
			"microsteps_per_rev must be positive, got %d", r.MicrostepsPerRev)
	}
	if r.ScrewPitchMm <= 0 {
		return errors.Newf(errors.ErrConfigValue,
			"screw_pitch_mm must be positive, got %v", r.ScrewPitchMm)
	}
	if r.AccelerationMmS2 <= 0 {
		return errors.Newf(errors.ErrConfigValue,
			"acceleration_mm_s2 must be positive, got %v", r.AccelerationMmS2)
	}
	if r.MaxVelocityMmS <= 0 {
		return errors.Newf(errors.ErrConfigValue,
			"max_velocity_mm_s must be positive, got %v", r.MaxVelocityMmS)
	}
	return nil
}

// Dump returns the line-oriented KEY:value representation sent in
// response to the CONFIG command.
func (r Record) Dump() []string {
	return []string{
		fmt.Sprintf("MICROSTEPS:%d", r.MicrostepsPerRev),
		fmt.Sprintf("PITCH:%g", r.ScrewPitchMm),
		fmt.Sprintf("ACCEL:%g", r.AccelerationMmS2),
		fmt.Sprintf("VELOCITY:%g", r.MaxVelocityMmS),
		fmt.Sprintf("POS1:%g", r.Position1Mm),
		fmt.Sprintf("POS2:%g", r.Position2Mm),
		fmt.Sprintf("INVERTPULSE:%d", boolToInt(r.InvertPulse)),
		fmt.Sprintf("INVERTDIR:%d", boolToInt(r.InvertDir)),
		fmt.Sprintf("INVERTENABLE:%d", boolToInt(r.InvertEnable)),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
