package services

import (
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type BudgetState string

const (
	BudgetUnder BudgetState = "under"
	BudgetOver  BudgetState = "over"
)

// BudgetStatus compares one budget limit with what was spent in its category.
type BudgetStatus struct {
	Category  string
	Limit     core.Money
	Spent     core.Money
	Remaining core.Money
	State     BudgetState
}

// EvaluateBudget computes the status of a single limit.
func EvaluateBudget(category string, limit, spent core.Money) BudgetStatus {
	remaining := limit.Sub(spent)
	state := BudgetUnder
	if remaining.IsNegative() {
		state = BudgetOver
	}
	return BudgetStatus{
		Category:  category,
		Limit:     limit,
		Spent:     spent,
		Remaining: remaining,
		State:     state,
	}
}

// EvaluateBudgets reports every configured budget, sorted by category, against
// the given expenses. Callers decide whether those expenses are filtered.
func EvaluateBudgets(s *ledger.Store, expenses []core.Expense) []BudgetStatus {
	keys := s.BudgetKeys()
	out := make([]BudgetStatus, 0, len(keys))
	for _, k := range keys {
		out = append(out, EvaluateBudget(k, s.Budgets[k], SpentIn(expenses, k)))
	}
	return out
}
