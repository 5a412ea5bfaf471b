package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func TestForecastWithoutRecurringIsFlat(t *testing.T) {
	start := core.Money{Cents: 123456}
	got := Forecast(start, nil, nil, 4, core.NewDate(2025, 5, 10))

	require.Len(t, got, 4)
	wantMonths := []string{"2025-06", "2025-07", "2025-08", "2025-09"}
	for i, m := range got {
		assert.Equal(t, wantMonths[i], m.Month)
		assert.Equal(t, start, m.Balance)
		assert.Zero(t, m.Income.Cents)
		assert.Zero(t, m.Expense.Cents)
	}
}

func TestForecastNonPositiveMonths(t *testing.T) {
	for _, n := range []int{0, -3} {
		got := Forecast(core.Money{Cents: 100}, nil, nil, n, core.NewDate(2025, 1, 1))
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestForecastActiveWindow(t *testing.T) {
	salary := core.RecurringIncome{
		Income:     core.Income{Amount: core.Money{Cents: 200000}, Description: "Salary", Date: core.NewDate(2025, 1, 28)},
		Recurrence: core.Recurrence{Frequency: core.Monthly, Repetitions: 12},
	}
	rent := core.RecurringExpense{
		Expense:    core.Expense{Amount: core.Money{Cents: 80000}, Description: "Rent", Category: "housing", Date: core.NewDate(2025, 3, 1)},
		Recurrence: core.Recurrence{Frequency: core.Monthly, Repetitions: 2},
	}

	got := Forecast(core.Money{Cents: 10000}, []core.RecurringIncome{salary}, []core.RecurringExpense{rent}, 4, core.NewDate(2025, 1, 31))
	require.Len(t, got, 4)

	// Feb: salary only; Mar and Apr: salary and rent; May: salary only
	assert.Equal(t, "2025-02", got[0].Month)
	assert.Equal(t, int64(200000), got[0].Income.Cents)
	assert.Zero(t, got[0].Expense.Cents)
	assert.Equal(t, int64(210000), got[0].Balance.Cents)

	assert.Equal(t, int64(80000), got[1].Expense.Cents)
	assert.Equal(t, int64(330000), got[1].Balance.Cents)
	assert.Equal(t, int64(450000), got[2].Balance.Cents)

	assert.Equal(t, "2025-05", got[3].Month)
	assert.Zero(t, got[3].Expense.Cents)
	assert.Equal(t, int64(650000), got[3].Balance.Cents)
}

func TestForecastIgnoresNotYetStarted(t *testing.T) {
	later := core.RecurringIncome{
		Income:     core.Income{Amount: core.Money{Cents: 500}, Description: "Later", Date: core.NewDate(2026, 1, 1)},
		Recurrence: core.Recurrence{Frequency: core.Monthly, Repetitions: 1},
	}
	got := Forecast(core.Money{}, []core.RecurringIncome{later}, nil, 2, core.NewDate(2025, 1, 1))
	for _, m := range got {
		assert.Zero(t, m.Income.Cents)
	}
}

func TestCurrentBalance(t *testing.T) {
	s := ledger.New()
	s.AddIncome(core.Income{Amount: core.Money{Cents: 100000}, Description: "Gift", Date: core.NewDate(2030, 1, 1)})
	s.AddExpense(core.Expense{Amount: core.Money{Cents: 2500}, Description: "Lunch", Category: "food", Date: core.NewDate(2020, 1, 1)})
	s.AddRecurringExpense(foodRecurring())

	// future-dated records count too; each template counts once
	assert.Equal(t, int64(100000-2500-10000), CurrentBalance(s).Cents)
}
