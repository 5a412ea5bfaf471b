package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Date: Date{}, Description: "a", Amount: Money{Cents: 1}, Category: "c"}, nil},
		{Expense{Date: NewDate(2025, 1, 1), Description: " ", Amount: Money{Cents: 1}, Category: "c"}, ErrEmptyDescription},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Category: "c"}, ErrInvalidAmount},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: ""}, ErrEmptyCategory},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a;b", Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidCharacters},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "c\n"}, ErrInvalidCharacters},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "#misc"}, ErrInvalidCharacters},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: " ###EXPENSES"}, ErrInvalidCharacters},
		{Expense{Date: NewDate(2025, 1, 1), Description: "rent (Recurring)", Amount: Money{Cents: 1}, Category: "c"}, ErrReservedMarker},
		{Expense{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Category: "c"}, ErrDescriptionTooLong},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestRecurringValidate(t *testing.T) {
	base := Income{Amount: Money{Cents: 100}, Description: "salary", Date: NewDate(2025, 1, 31)}
	ok := RecurringIncome{Income: base, Recurrence: Recurrence{Frequency: Monthly, Repetitions: 12}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := ok
	zero.Repetitions = 0
	if err := zero.Validate(); !errors.Is(err, ErrInvalidRepetitions) {
		t.Fatalf("expected ErrInvalidRepetitions, got %v", err)
	}

	weekly := ok
	weekly.Frequency = "weekly"
	if err := weekly.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}

	bad := ok
	bad.Amount = Money{}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseFrequency(t *testing.T) {
	for _, in := range []string{"monthly", "Monthly", " MONTHLY ", "Ежемесячно"} {
		f, err := ParseFrequency(in)
		if err != nil || f != Monthly {
			t.Fatalf("%q expected monthly, got %q (err=%v)", in, f, err)
		}
	}
	if _, err := ParseFrequency("yearly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"food", false},
		{"Bike #2", false},
		{"c#", false},
		{"#1 Vacation", true},
		{"  #misc", true},
		{"###GOALS", true},
		{"a;b", true},
		{"line\nbreak", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCharacters) {
				t.Fatalf("expected ErrInvalidCharacters, got %v", err)
			}
		})
	}

	// descriptions never start a line, so a leading '#' is fine there
	if err := ValidateText("#1 at the bakery"); err != nil {
		t.Fatalf("ValidateText rejected leading #: %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("add expense: %w", ErrUnknownCategory)) {
		t.Fatalf("wrapped validation error not recognised")
	}
	if IsValidation(errors.New("disk full")) {
		t.Fatalf("infrastructure error classified as validation")
	}
}

func TestGoal(t *testing.T) {
	g := Goal{Name: "Bike", Target: Money{Cents: 1000}, Current: Money{Cents: 1000}, Due: NewDate(2025, 1, 1)}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !g.Reached() || g.Progress().String() != "100" {
		t.Fatalf("expected reached at 100%%, got %s", g.Progress())
	}

	g.Current = Money{Cents: 333}
	if got := g.Progress().StringFixed(1); got != "33.3" {
		t.Fatalf("expected 33.3, got %s", got)
	}
	if got := g.Remaining(); got.Cents != 667 {
		t.Fatalf("expected 667 remaining, got %d", got.Cents)
	}

	g.Target = Money{}
	if err := g.Validate(); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	g.Target = Money{Cents: 1}
	g.Current = Money{Cents: -1}
	if err := g.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	g.Current = Money{}
	for _, name := range []string{"#1 Vacation", "###INCOMES"} {
		g.Name = name
		if err := g.Validate(); !errors.Is(err, ErrInvalidCharacters) {
			t.Fatalf("goal %q: expected ErrInvalidCharacters, got %v", name, err)
		}
	}
	g.Name = "Bike #2"
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok for inner #, got %v", err)
	}
	if !SameName("Bike", " bike ") {
		t.Fatalf("names should match case-insensitively")
	}
}
