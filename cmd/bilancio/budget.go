package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func budgetCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}
	cmd.AddCommand(budgetSetCmd(app), budgetGetCmd(app), budgetListCmd(app), budgetDeleteCmd(app))
	return cmd
}

func budgetSetCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Set the spending limit for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := services.ParseLimit(args[1])
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				res, err := svc.SetBudget(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
}

func budgetGetCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "get <category>",
		Short: "Show the limit for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				category := core.NormalizeCategory(args[0])
				limit, ok := svc.Budget(category)
				if !ok {
					printEmpty(cmd.OutOrStdout(), fmt.Sprintf("No budget set for %s.", category))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", category, limit)
				return nil
			})
		},
	}
}

func budgetListCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets with spending to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				statuses, err := svc.Budgets()
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					printEmpty(cmd.OutOrStdout(), "No budgets set.")
					return nil
				}
				rows := make([][]string, len(statuses))
				for i, b := range statuses {
					rows[i] = []string{b.Category, b.Limit.String(), b.Spent.String(), b.Remaining.String(), string(b.State)}
				}
				return writeTable(cmd.OutOrStdout(), []string{"Category", "Limit", "Spent", "Remaining", "State"}, rows)
			})
		},
	}
}

func budgetDeleteCmd(app *application) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Remove the limit for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				if !app.confirm(cmd, yes, fmt.Sprintf("Delete budget for %s?", core.NormalizeCategory(args[0]))) {
					printEmpty(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}
				res, err := svc.DeleteBudget(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
