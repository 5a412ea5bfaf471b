package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func categoryCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage expense categories",
	}
	cmd.AddCommand(categoryListCmd(app), categoryAddCmd(app), categoryRemoveCmd(app))
	return cmd
}

func categoryListCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				for _, c := range svc.Categories() {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
}

func categoryAddCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				res, err := svc.AddCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
}

func categoryRemoveCmd(app *application) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category; records using it are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				if !app.confirm(cmd, yes, fmt.Sprintf("Remove category %s?", core.NormalizeCategory(args[0]))) {
					printEmpty(cmd.OutOrStdout(), "Removal cancelled.")
					return nil
				}
				res, err := svc.RemoveCategory(cmd.Context(), args[0])
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
