package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/services"
)

func reportCmd(app *application) *cobra.Command {
	var f services.Filters
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the ledger report, optionally filtered",
		Long: `Print totals, spending by category, budget status and the record lists.
Filters combine: a record must match every filter that is given. The
category filter applies to expenses only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.Normalize().Validate(); err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				r, err := svc.Report(f)
				if err != nil {
					return err
				}
				return r.Render(cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&f.Keyword, "keyword", "k", "", "description contains (case-insensitive)")
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "expense category")
	cmd.Flags().StringVarP(&f.Month, "month", "m", "", "month (YYYY-MM)")
	cmd.Flags().StringVar(&f.Year, "year", "", "year (YYYY)")
	return cmd
}

func summaryRows(periods []core.PeriodSummary) [][]string {
	rows := make([][]string, len(periods))
	for i, p := range periods {
		rows[i] = []string{p.Period, p.Income.String(), p.Expense.String(), p.Balance.String()}
	}
	return rows
}

func summaryCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Monthly and yearly totals, and spending by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				out := cmd.OutOrStdout()

				monthly, err := svc.MonthlySummary()
				if err != nil {
					return err
				}
				if len(monthly) == 0 {
					printEmpty(out, "No records up to today.")
					return nil
				}
				yearly, err := svc.YearlySummary()
				if err != nil {
					return err
				}
				byCategory, err := svc.ExpenseByCategory()
				if err != nil {
					return err
				}

				header := []string{"Period", "Income", "Expense", "Balance"}
				fmt.Fprintln(out, cli.TitleStyle.Render("Monthly"))
				if err := writeTable(out, header, summaryRows(monthly)); err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, cli.TitleStyle.Render("Yearly"))
				if err := writeTable(out, header, summaryRows(yearly)); err != nil {
					return err
				}

				if len(byCategory) > 0 {
					rows := make([][]string, len(byCategory))
					for i, c := range byCategory {
						rows[i] = []string{c.Name, c.Amount.String()}
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, cli.TitleStyle.Render("Expenses by category"))
					return writeTable(out, []string{"Category", "Amount"}, rows)
				}
				return nil
			})
		},
	}
}

func forecastCmd(app *application) *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project the balance over the coming months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				n := months
				if !cmd.Flags().Changed("months") {
					n = svc.ForecastMonths()
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Current balance: %s\n", svc.CurrentBalance())

				proj := svc.Forecast(n)
				if len(proj) == 0 {
					printEmpty(out, "Nothing to forecast.")
					return nil
				}
				rows := make([][]string, len(proj))
				for i, m := range proj {
					rows[i] = []string{m.Month, m.Income.String(), m.Expense.String(), m.Balance.String()}
				}
				return writeTable(out, []string{"Month", "Income", "Expense", "Balance"}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&months, "months", "n", 0, "number of months (default from FORECAST_MONTHS)")
	return cmd
}
