package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Goal is a savings target with a due date.
type Goal struct {
	Name    string
	Target  Money
	Current Money
	Due     Date
}

var hundred = decimal.NewFromInt(100)

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrInvalidGoalName
	}
	if err := ValidateName(g.Name); err != nil {
		return err
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.Current.Cents < 0 {
		return ErrNegativeAmount
	}
	return g.Due.Validate()
}

// Progress is current/target as a percentage rounded to one decimal place.
func (g Goal) Progress() decimal.Decimal {
	if g.Target.Cents <= 0 {
		return decimal.Zero
	}
	return g.Current.Decimal().Mul(hundred).Div(g.Target.Decimal()).Round(1)
}

// Remaining is how much is still missing; negative once the goal is exceeded.
func (g Goal) Remaining() Money {
	return g.Target.Sub(g.Current)
}

// Reached reports whether the current amount covers the target.
func (g Goal) Reached() bool {
	return g.Target.Cents > 0 && g.Current.Cents >= g.Target.Cents
}

// SameName compares goal names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
