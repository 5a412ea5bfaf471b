package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func sampleStore() *ledger.Store {
	s := ledger.New()
	s.AddIncome(core.Income{Amount: core.Money{Cents: 150000}, Description: "Bonus", Date: core.NewDate(2025, 2, 1)})
	s.AddExpense(core.Expense{Amount: core.Money{Cents: 1250}, Description: "Lunch", Category: "food", Date: core.NewDate(2025, 2, 3)})
	s.AddExpense(core.Expense{Amount: core.Money{Cents: 9999}, Description: "Train", Category: "transport", Date: core.NewDate(2025, 2, 4)})
	s.SetBudget("food", core.Money{Cents: 25000})
	s.SetBudget("transport", core.Money{})
	s.AddRecurringIncome(core.RecurringIncome{
		Income:     core.Income{Amount: core.Money{Cents: 300000}, Description: "Salary", Date: core.NewDate(2025, 1, 31)},
		Recurrence: core.Recurrence{Frequency: core.Monthly, Repetitions: 12},
	})
	s.AddRecurringExpense(core.RecurringExpense{
		Expense:    core.Expense{Amount: core.Money{Cents: 80000}, Description: "Rent", Category: "housing", Date: core.NewDate(2025, 1, 1)},
		Recurrence: core.Recurrence{Frequency: core.Monthly, Repetitions: 6},
	})
	s.AddGoal(core.Goal{Name: "Bike", Target: core.Money{Cents: 100000}, Current: core.Money{Cents: 2550}, Due: core.NewDate(2025, 12, 1)})
	s.AddCategory("pets")
	return s
}

func TestEncodeFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleStore()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "###INCOMES\n1500.00;Bonus;2025-02-01\n"))
	assert.Contains(t, out, "\n###EXPENSES\n12.50;Lunch;food;2025-02-03\n99.99;Train;transport;2025-02-04\n")
	assert.Contains(t, out, "\n###BUDGET\nfood;250.00\ntransport;0.00\n")
	assert.Contains(t, out, "\n###RECURRING_INCOMES\n3000.00;Salary;2025-01-31;monthly;12\n")
	assert.Contains(t, out, "\n###RECURRING_EXPENSES\n800.00;Rent;housing;2025-01-01;monthly;6\n")
	assert.Contains(t, out, "\n###GOALS\nBike;1000.00;25.50;2025-12-01\n")
	assert.Contains(t, out, "\n###CATEGORIES\nentertainment\nfood\ngifts\nhousing\npets\nsalary\ntransport\n")
}

func TestRoundTrip(t *testing.T) {
	orig := sampleStore()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, orig))

	got, diags, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, orig.Incomes, got.Incomes)
	assert.Equal(t, orig.Expenses, got.Expenses)
	assert.Equal(t, orig.RecurringIncomes, got.RecurringIncomes)
	assert.Equal(t, orig.RecurringExpenses, got.RecurringExpenses)
	assert.Equal(t, orig.Goals, got.Goals)
	assert.Equal(t, orig.Budgets, got.Budgets)
	assert.Equal(t, orig.Categories(), got.Categories())

	// a second pass must be byte-identical
	var first, second bytes.Buffer
	require.NoError(t, Encode(&first, orig))
	require.NoError(t, Encode(&second, got))
	assert.Equal(t, first.String(), second.String())
}

func TestRoundTripHashInText(t *testing.T) {
	orig := ledger.New()
	orig.AddExpense(core.Expense{Amount: core.Money{Cents: 450}, Description: "#1 at the bakery", Category: "c#", Date: core.NewDate(2025, 2, 3)})
	orig.SetBudget("c#", core.Money{Cents: 5000})
	orig.AddGoal(core.Goal{Name: "Bike #2", Target: core.Money{Cents: 100000}, Due: core.NewDate(2025, 12, 1)})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, orig))
	got, diags, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, orig.Expenses, got.Expenses)
	assert.Equal(t, orig.Budgets, got.Budgets)
	assert.Equal(t, orig.Goals, got.Goals)
	assert.Contains(t, got.Categories(), "c#")

	// names that would start a line with '#' are read back as comments or
	// section headers, so validation must keep them out of the store
	for _, name := range []string{"#1 Vacation", "###GOALS", "#misc", " ###INCOMES"} {
		assert.ErrorIs(t, core.ValidateName(name), core.ErrInvalidCharacters, name)

		s := ledger.New()
		s.AddGoal(core.Goal{Name: name, Target: core.Money{Cents: 100}, Due: core.NewDate(2025, 12, 1)})
		buf.Reset()
		require.NoError(t, Encode(&buf, s))
		back, _, err := Decode(&buf)
		require.NoError(t, err)
		assert.Empty(t, back.Goals, "goal %q unexpectedly survived a round trip", name)
	}
}

func TestDecodeSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"# exported ledger",
		"orphan;line",
		"###INCOMES",
		"100.00;Gift;2025-01-01",
		"abc;Broken amount;2025-01-01",
		"100.00;Too;many;fields",
		"",
		"###EXPENSES",
		"10,50;Coffee;Food;2025-01-02",
		"10.00;Bad date;food;2025-13-01",
		"-5.00;Negative;food;2025-01-02",
		"###RECURRING_EXPENSES",
		"50.00;Gym;sport;2025-01-05;Ежемесячно;3",
		"50.00;Gym;sport;2025-01-05;weekly;3",
		"50.00;Gym;sport;2025-01-05;monthly;0",
		"###BUDGET",
		"Travel;300.00",
		"###GOALS",
		"Car;0.00;0.00;2026-01-01",
		"###MYSTERY",
		"whatever",
		"###CATEGORIES",
		"misc",
	}, "\n")

	s, diags, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, s.Incomes, 1)
	assert.Equal(t, "Gift", s.Incomes[0].Description)

	require.Len(t, s.Expenses, 1)
	assert.Equal(t, int64(1050), s.Expenses[0].Amount.Cents)
	assert.Equal(t, "Food", s.Expenses[0].Category)

	require.Len(t, s.RecurringExpenses, 1)
	assert.Equal(t, core.Monthly, s.RecurringExpenses[0].Frequency)

	assert.Empty(t, s.Goals)
	limit, ok := s.Budget("travel")
	require.True(t, ok)
	assert.Equal(t, int64(30000), limit.Cents)

	// referenced categories join the set; defaults are not added
	assert.Equal(t, []string{"food", "misc", "sport", "travel"}, s.Categories())

	lines := make([]int, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.Line)
	}
	assert.Equal(t, []int{2, 5, 6, 10, 11, 14, 15, 19, 21}, lines)
}

func TestDecodeEmptyUsesDefaults(t *testing.T) {
	s, diags, err := Decode(strings.NewReader("###INCOMES\n\n###CATEGORIES\n"))
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.ElementsMatch(t, core.DefaultCategories, s.Categories())
	assert.True(t, s.Empty())
}
