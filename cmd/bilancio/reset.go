package main

import (
	"github.com/spf13/cobra"

	"bilancio/internal/services"
)

func resetCmd(app *application) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record, budget and goal",
		Long: `Reset clears all incomes, expenses, recurring items, budgets and goals
and restores the default categories. This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				if !app.confirm(cmd, yes, "This will delete all data. Continue?") {
					printEmpty(cmd.OutOrStdout(), "Reset cancelled.")
					return nil
				}
				printResult(cmd, svc.Reset(cmd.Context()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
