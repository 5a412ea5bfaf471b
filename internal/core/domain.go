package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Monthly Frequency = "monthly"

	// legacyMonthly is how older ledger files spell the monthly frequency.
	legacyMonthly = "Ежемесячно"
)

// RecurringMarker is appended to the description of every occurrence
// derived from a recurring record.
const RecurringMarker = " (recurring)"

const maxTextLength = 200

// DefaultCategories seeds an empty category set.
var DefaultCategories = []string{"food", "transport", "entertainment", "housing", "salary", "gifts"}

type (
	Frequency string

	Income struct {
		Amount      Money
		Description string
		Date        Date
	}

	Expense struct {
		Amount      Money
		Description string
		Category    string
		Date        Date
	}

	Recurrence struct {
		Frequency   Frequency
		Repetitions int
	}

	// RecurringIncome is an income template; Date is the first occurrence.
	RecurringIncome struct {
		Income
		Recurrence
	}

	// RecurringExpense is an expense template; Date is the first occurrence.
	RecurringExpense struct {
		Expense
		Recurrence
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxTextLength)
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidRepetitions = errors.New("repetitions must be at least 1")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidGoalName    = errors.New("empty goal name")
	ErrDuplicateGoal      = errors.New("goal with this name already exists")
	ErrInvalidTarget      = errors.New("target amount must be greater than zero")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrInvalidCharacters  = errors.New("text contains reserved characters")
	ErrReservedMarker     = errors.New("description contains the recurring marker")
	ErrInvalidFilter      = errors.New("invalid filter")
)

var validationErrors = []error{
	ErrInvalidAmount, ErrNegativeAmount, ErrEmptyDescription, ErrDescriptionTooLong,
	ErrEmptyCategory, ErrUnknownCategory, ErrDuplicateCategory, ErrInvalidDate,
	ErrInvalidRepetitions, ErrInvalidFrequency, ErrInvalidGoalName, ErrDuplicateGoal,
	ErrInvalidTarget, ErrIndexOutOfRange, ErrInvalidCharacters, ErrReservedMarker,
	ErrInvalidFilter,
}

// IsValidation reports whether err was caused by rejected user input
// rather than by an infrastructure failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseFrequency accepts any casing of "monthly" and the legacy spelling.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(Monthly)) || s == legacyMonthly {
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

func (f Frequency) String() string {
	return string(f)
}

// NormalizeCategory is the canonical form of a category name.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// ValidateText rejects text that cannot be stored in a ledger line.
func ValidateText(s string) error {
	if strings.ContainsAny(s, ";\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidCharacters, s)
	}
	return nil
}

// ValidateName is ValidateText for names that start a ledger line, such as
// categories and goal names. Those lines are read as comments or section
// headers when they begin with '#'.
func ValidateName(s string) error {
	if err := ValidateText(s); err != nil {
		return err
	}
	if strings.HasPrefix(strings.TrimSpace(s), "#") {
		return fmt.Errorf("%w: %q cannot start with #", ErrInvalidCharacters, s)
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxTextLength {
		return ErrDescriptionTooLong
	}
	if err := ValidateText(desc); err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(desc), strings.TrimSpace(RecurringMarker)) {
		return ErrReservedMarker
	}
	return nil
}

func validateCategory(c string) error {
	if strings.TrimSpace(c) == "" {
		return ErrEmptyCategory
	}
	return ValidateName(c)
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	return i.Amount.Validate()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return validateCategory(e.Category)
}

func (r Recurrence) Validate() error {
	if r.Frequency != Monthly {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if r.Repetitions < 1 {
		return ErrInvalidRepetitions
	}
	return nil
}

func (ri RecurringIncome) Validate() error {
	if err := ri.Income.Validate(); err != nil {
		return fmt.Errorf("invalid start record: %w", err)
	}
	return ri.Recurrence.Validate()
}

func (re RecurringExpense) Validate() error {
	if err := re.Expense.Validate(); err != nil {
		return fmt.Errorf("invalid start record: %w", err)
	}
	return re.Recurrence.Validate()
}

// IsDerived reports whether a description was produced by recurrence expansion.
func IsDerived(description string) bool {
	return strings.Contains(description, RecurringMarker)
}
