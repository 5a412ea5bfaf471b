package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func goalCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(goalAddCmd(app), goalListCmd(app), goalUpdateCmd(app), goalDeleteCmd(app))
	return cmd
}

type goalFlags struct {
	in services.GoalInput
}

func (f *goalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Name, "name", "", "goal name")
	cmd.Flags().StringVar(&f.in.Target, "target", "", "target amount")
	cmd.Flags().StringVar(&f.in.Current, "current", "", "amount saved so far")
	cmd.Flags().StringVar(&f.in.Due, "due", "", "due date (YYYY-MM-DD)")
}

func (f *goalFlags) overlay(cmd *cobra.Command, base services.GoalInput) services.GoalInput {
	if cmd.Flags().Changed("name") {
		base.Name = f.in.Name
	}
	if cmd.Flags().Changed("target") {
		base.Target = f.in.Target
	}
	if cmd.Flags().Changed("current") {
		base.Current = f.in.Current
	}
	if cmd.Flags().Changed("due") {
		base.Due = f.in.Due
	}
	return base
}

func goalInput(g core.Goal) services.GoalInput {
	return services.GoalInput{Name: g.Name, Target: g.Target.String(), Current: g.Current.String(), Due: g.Due.String()}
}

// resolveGoal accepts a 1-based index or a goal name.
func resolveGoal(svc *services.LedgerService, ref string) (int, error) {
	if i, err := services.ParseIndex(ref); err == nil {
		return i, nil
	}
	if i, ok := svc.FindGoal(ref); ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: no goal %q", core.ErrIndexOutOfRange, ref)
}

func goalAddCmd(app *application) *cobra.Command {
	var f goalFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := f.in.Goal()
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				res, err := svc.AddGoal(cmd.Context(), g)
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func goalListCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				views := svc.Goals()
				if len(views) == 0 {
					printEmpty(cmd.OutOrStdout(), "No goals set.")
					return nil
				}
				rows := make([][]string, len(views))
				for i, v := range views {
					rows[i] = []string{
						strconv.Itoa(v.Index),
						v.Goal.Name,
						v.Goal.Target.String(),
						v.Goal.Current.String(),
						v.Progress.StringFixed(1) + "%",
						v.Remaining.String(),
						v.Goal.Due.String(),
						string(v.Status),
					}
				}
				return writeTable(cmd.OutOrStdout(),
					[]string{"#", "Name", "Target", "Current", "Progress", "Remaining", "Due", "Status"}, rows)
			})
		},
	}
}

func goalUpdateCmd(app *application) *cobra.Command {
	var f goalFlags
	cmd := &cobra.Command{
		Use:   "update <index|name>",
		Short: "Update a goal; omitted fields keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				index, err := resolveGoal(svc, args[0])
				if err != nil {
					return err
				}
				current, err := svc.Goal(index)
				if err != nil {
					return err
				}
				g, err := f.overlay(cmd, goalInput(current.Goal)).Goal()
				if err != nil {
					return err
				}
				res, err := svc.UpdateGoal(cmd.Context(), index, g)
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func goalDeleteCmd(app *application) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <index|name>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				index, err := resolveGoal(svc, args[0])
				if err != nil {
					return err
				}
				v, err := svc.Goal(index)
				if err != nil {
					return err
				}
				if !app.confirm(cmd, yes, fmt.Sprintf("Delete goal %q?", v.Goal.Name)) {
					printEmpty(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}
				res, err := svc.DeleteGoal(cmd.Context(), index)
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
