package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PeriodSummary totals one month ("YYYY-MM") or one year ("YYYY").
type PeriodSummary struct {
	Period  string
	Income  Money
	Expense Money
	Balance Money
}

// ForecastMonth is one projected month with the running balance at its end.
type ForecastMonth struct {
	Month   string
	Income  Money
	Expense Money
	Balance Money
}
