package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	YearLayout  = "2006"
)

// Date is a calendar day in UTC with no time component.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM period the date falls in.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

// YearKey returns the YYYY period the date falls in.
func (d Date) YearKey() string {
	return d.Format(YearLayout)
}

// AddMonths moves the date n months forward. The day is clamped to the
// length of the target month, so Jan 31 plus one month is Feb 28 (or 29).
func (d Date) AddMonths(n int) Date {
	firstOfTarget := time.Date(d.Year(), d.Time.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(firstOfTarget.Year(), firstOfTarget.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(firstOfTarget.Year(), int(firstOfTarget.Month()), day)
}

func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// MonthsBetween counts whole calendar months from the month of a to the
// month of b, ignoring the day. It is negative when b is earlier.
func MonthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + (b.Month() - a.Month())
}

// ValidMonthKey reports whether s is a YYYY-MM period.
func ValidMonthKey(s string) bool {
	_, err := time.Parse(MonthLayout, s)
	return err == nil && len(s) == len(MonthLayout)
}

// ValidYearKey reports whether s is a YYYY period.
func ValidYearKey(s string) bool {
	_, err := time.Parse(YearLayout, s)
	return err == nil && len(s) == len(YearLayout)
}
