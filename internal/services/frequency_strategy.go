// Package services provides the ledger calculations and their orchestration.
//
// This file implements the Strategy Pattern for recurrence stepping.
// Each frequency has a Stepper that knows where the i-th occurrence of a
// recurring record falls.

package services

import (
	"fmt"

	"bilancio/internal/core"
)

// Stepper is the strategy interface for placing recurring occurrences.
type Stepper interface {
	// Occurrence returns the date of the i-th occurrence (0-based) of a
	// record that first happens on start.
	Occurrence(start core.Date, i int) core.Date
}

// MonthlyStepper places occurrences one calendar month apart. Days that do
// not exist in a target month are clamped to its last day.
type MonthlyStepper struct{}

func (MonthlyStepper) Occurrence(start core.Date, i int) core.Date {
	return start.AddMonths(i)
}

// steppers maps frequencies to their strategies.
var steppers = map[core.Frequency]Stepper{
	core.Monthly: MonthlyStepper{},
}

// GetStepper returns the stepper for a frequency.
// Returns an error if the frequency is not supported.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	stepper, ok := steppers[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: no stepper for %q", core.ErrInvalidFrequency, frequency)
	}
	return stepper, nil
}

// RegisterStepper allows registering steppers for new frequencies.
func RegisterStepper(frequency core.Frequency, stepper Stepper) {
	steppers[frequency] = stepper
}
