package focuser

import "time"

// Direction is the rotation direction of the focus knob.
type Direction int

const (
	// Clockwise moves the drawtube inward (positive step values).
	Clockwise Direction = iota
	// CounterClockwise moves the drawtube outward (negative step values).
	CounterClockwise
)

// String returns the direction name.
func (d Direction) String() string {
	if d == CounterClockwise {
		return "CCW"
	}
	return "CW"
}

// StepMode selects how far one discrete user input moves the motor.
type StepMode int

const (
	// ModeCoarse moves BaseStep full motor steps per input.
	ModeCoarse StepMode = iota
	// ModeMedium moves a quarter of BaseStep full motor steps per input.
	ModeMedium
	// ModeFine moves exactly one full motor step per input.
	ModeFine
)

// String returns the mode name.
func (m StepMode) String() string {
	switch m {
	case ModeCoarse:
		return "coarse"
	case ModeFine:
		return "fine"
	default:
		return "medium"
	}
}

const (
	// BaseStep is the number of full motor steps one discrete user input
	// moves the focuser at 1:1 gearing. The value matches the firmware's
	// motion profile tuning.
	BaseStep = 37

	// DefaultMicroSteps is the micro-steps-per-full-step value assumed
	// until the controller's configuration jumper has been read. The
	// shipped driver boards are strapped for quarter-stepping.
	DefaultMicroSteps = 4

	// DefaultIdlePeriod is the inactivity supervisor period.
	DefaultIdlePeriod = 5 * time.Second
)

// stepSize returns the unsigned micro-step count for one input in the
// given mode. The medium division truncates; 37/4 full steps is 9.
func stepSize(mode StepMode, microSteps int32) int32 {
	switch mode {
	case ModeCoarse:
		return BaseStep * microSteps
	case ModeMedium:
		return (BaseStep / 4) * microSteps
	default:
		return microSteps
	}
}

// signedSteps applies the direction sign to the step magnitude.
func signedSteps(dir Direction, mode StepMode, microSteps int32) int32 {
	n := stepSize(mode, microSteps)
	if dir == CounterClockwise {
		return -n
	}
	return n
}
