// Package units converts between stage millimeters and motor steps.
// Every value crossing into the step generator goes through a Converter;
// no other package performs the conversion.
package units

// Converter maps linear millimeters to microstep counts for a ball-screw
// axis driven by a microstepping driver.
type Converter struct {
	MicrostepsPerRev int
	ScrewPitchMm     float64
}

// New returns a Converter for the given drive geometry.
// Both arguments must be positive; config validation enforces this
// before a Converter is built.
func New(microstepsPerRev int, screwPitchMm float64) Converter {
	return Converter{
		MicrostepsPerRev: microstepsPerRev,
		ScrewPitchMm:     screwPitchMm,
	}
}

// StepsPerMm returns the number of microsteps per millimeter of travel.
func (c Converter) StepsPerMm() float64 {
	return float64(c.MicrostepsPerRev) / c.ScrewPitchMm
}

// MmToSteps converts millimeters to a step count, truncating toward zero.
func (c Converter) MmToSteps(mm float64) int64 {
	return int64(mm * c.StepsPerMm())
}

// StepsToMm converts a step count back to millimeters.
func (c Converter) StepsToMm(steps int64) float64 {
	return float64(steps) / c.StepsPerMm()
}

// MmRateToSteps converts a rate in mm/s (or mm/s^2) to steps/s (steps/s^2).
func (c Converter) MmRateToSteps(rate float64) float64 {
	return rate * c.StepsPerMm()
}
