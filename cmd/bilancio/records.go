package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// recordOps binds the service operations of one record type. Every record
// travels through the commands as a services.RecordInput.
type recordOps[T any] struct {
	parse  func(services.RecordInput) (T, error)
	format func(T) services.RecordInput
	add    func(*services.LedgerService, context.Context, T) (services.Result, error)
	get    func(*services.LedgerService, int) (T, error)
	edit   func(*services.LedgerService, context.Context, int, T) (services.Result, error)
	del    func(*services.LedgerService, context.Context, int) (services.Result, error)
	list   func(*services.LedgerService) []T
}

type recordKind struct {
	name      string
	plural    string
	category  bool
	recurring bool

	add  func(context.Context, *services.LedgerService, services.RecordInput) (services.Result, error)
	get  func(*services.LedgerService, int) (services.RecordInput, error)
	edit func(context.Context, *services.LedgerService, int, services.RecordInput) (services.Result, error)
	del  func(context.Context, *services.LedgerService, int) (services.Result, error)
	list func(*services.LedgerService) []services.RecordInput
}

func (o recordOps[T]) kind(name, plural string, category, recurring bool) recordKind {
	return recordKind{
		name:      name,
		plural:    plural,
		category:  category,
		recurring: recurring,
		add: func(ctx context.Context, svc *services.LedgerService, in services.RecordInput) (services.Result, error) {
			v, err := o.parse(in)
			if err != nil {
				return services.Result{}, err
			}
			return o.add(svc, ctx, v)
		},
		get: func(svc *services.LedgerService, i int) (services.RecordInput, error) {
			v, err := o.get(svc, i)
			if err != nil {
				return services.RecordInput{}, err
			}
			return o.format(v), nil
		},
		edit: func(ctx context.Context, svc *services.LedgerService, i int, in services.RecordInput) (services.Result, error) {
			v, err := o.parse(in)
			if err != nil {
				return services.Result{}, err
			}
			return o.edit(svc, ctx, i, v)
		},
		del: func(ctx context.Context, svc *services.LedgerService, i int) (services.Result, error) {
			return o.del(svc, ctx, i)
		},
		list: func(svc *services.LedgerService) []services.RecordInput {
			items := o.list(svc)
			out := make([]services.RecordInput, len(items))
			for i, v := range items {
				out[i] = o.format(v)
			}
			return out
		},
	}
}

func incomeInput(v core.Income) services.RecordInput {
	return services.RecordInput{Amount: v.Amount.String(), Description: v.Description, Date: v.Date.String()}
}

func expenseInput(v core.Expense) services.RecordInput {
	return services.RecordInput{Amount: v.Amount.String(), Description: v.Description, Category: v.Category, Date: v.Date.String()}
}

func withRecurrence(in services.RecordInput, r core.Recurrence) services.RecordInput {
	in.Frequency = r.Frequency.String()
	in.Repetitions = strconv.Itoa(r.Repetitions)
	return in
}

var recordKinds = []recordKind{
	recordOps[core.Income]{
		parse:  services.RecordInput.Income,
		format: incomeInput,
		add:    (*services.LedgerService).AddIncome,
		get:    (*services.LedgerService).Income,
		edit:   (*services.LedgerService).EditIncome,
		del:    (*services.LedgerService).DeleteIncome,
		list:   (*services.LedgerService).Incomes,
	}.kind("income", "incomes", false, false),

	recordOps[core.Expense]{
		parse:  services.RecordInput.Expense,
		format: expenseInput,
		add:    (*services.LedgerService).AddExpense,
		get:    (*services.LedgerService).Expense,
		edit:   (*services.LedgerService).EditExpense,
		del:    (*services.LedgerService).DeleteExpense,
		list:   (*services.LedgerService).Expenses,
	}.kind("expense", "expenses", true, false),

	recordOps[core.RecurringIncome]{
		parse: services.RecordInput.RecurringIncome,
		format: func(v core.RecurringIncome) services.RecordInput {
			return withRecurrence(incomeInput(v.Income), v.Recurrence)
		},
		add:  (*services.LedgerService).AddRecurringIncome,
		get:  (*services.LedgerService).RecurringIncome,
		edit: (*services.LedgerService).EditRecurringIncome,
		del:  (*services.LedgerService).DeleteRecurringIncome,
		list: (*services.LedgerService).RecurringIncomes,
	}.kind("recurring-income", "recurring incomes", false, true),

	recordOps[core.RecurringExpense]{
		parse: services.RecordInput.RecurringExpense,
		format: func(v core.RecurringExpense) services.RecordInput {
			return withRecurrence(expenseInput(v.Expense), v.Recurrence)
		},
		add:  (*services.LedgerService).AddRecurringExpense,
		get:  (*services.LedgerService).RecurringExpense,
		edit: (*services.LedgerService).EditRecurringExpense,
		del:  (*services.LedgerService).DeleteRecurringExpense,
		list: (*services.LedgerService).RecurringExpenses,
	}.kind("recurring-expense", "recurring expenses", true, true),
}

func recordCmd(app *application, k recordKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.name,
		Short: fmt.Sprintf("Manage %s", k.plural),
	}
	cmd.AddCommand(
		recordAddCmd(app, k),
		recordListCmd(app, k),
		recordShowCmd(app, k),
		recordEditCmd(app, k),
		recordDeleteCmd(app, k),
	)
	return cmd
}

// recordFlags holds the field flags shared by add and edit.
type recordFlags struct {
	in services.RecordInput
}

func (f *recordFlags) register(cmd *cobra.Command, k recordKind) {
	cmd.Flags().StringVarP(&f.in.Amount, "amount", "a", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVarP(&f.in.Description, "description", "d", "", "description")
	if k.category {
		cmd.Flags().StringVarP(&f.in.Category, "category", "c", "", "category")
	}
	dateHelp := "date (YYYY-MM-DD)"
	if k.recurring {
		dateHelp = "start date (YYYY-MM-DD)"
		cmd.Flags().StringVarP(&f.in.Frequency, "frequency", "f", "", "frequency (monthly)")
		cmd.Flags().StringVarP(&f.in.Repetitions, "repetitions", "n", "", "number of occurrences")
	}
	cmd.Flags().StringVar(&f.in.Date, "date", "", dateHelp)
}

// overlay replaces the fields of base whose flags were given.
func (f *recordFlags) overlay(cmd *cobra.Command, base services.RecordInput) services.RecordInput {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("amount", &base.Amount, f.in.Amount)
	set("description", &base.Description, f.in.Description)
	set("category", &base.Category, f.in.Category)
	set("date", &base.Date, f.in.Date)
	set("frequency", &base.Frequency, f.in.Frequency)
	set("repetitions", &base.Repetitions, f.in.Repetitions)
	return base
}

func recordAddCmd(app *application, k recordKind) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s", k.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				in := f.in
				if in.Date == "" {
					in.Date = svc.Today().String()
				}
				res, err := k.add(cmd.Context(), svc, in)
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
	f.register(cmd, k)
	_ = cmd.MarkFlagRequired("amount")
	if k.recurring {
		_ = cmd.MarkFlagRequired("repetitions")
	}
	return cmd
}

func recordHeader(k recordKind) []string {
	h := []string{"#", "Amount", "Description"}
	if k.category {
		h = append(h, "Category")
	}
	if k.recurring {
		return append(h, "Start", "Frequency", "Repetitions")
	}
	return append(h, "Date")
}

func recordRow(k recordKind, index int, in services.RecordInput) []string {
	row := []string{strconv.Itoa(index), in.Amount, in.Description}
	if k.category {
		row = append(row, in.Category)
	}
	row = append(row, in.Date)
	if k.recurring {
		row = append(row, in.Frequency, in.Repetitions)
	}
	return row
}

func recordListCmd(app *application, k recordKind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", k.plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				items := k.list(svc)
				if len(items) == 0 {
					printEmpty(cmd.OutOrStdout(), fmt.Sprintf("No %s recorded.", k.plural))
					return nil
				}
				rows := make([][]string, len(items))
				for i, in := range items {
					rows[i] = recordRow(k, i+1, in)
				}
				return writeTable(cmd.OutOrStdout(), recordHeader(k), rows)
			})
		},
	}
}

func recordShowCmd(app *application, k recordKind) *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: fmt.Sprintf("Show one %s", k.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := services.ParseIndex(args[0])
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				in, err := k.get(svc, index)
				if err != nil {
					return err
				}
				return writeTable(cmd.OutOrStdout(), recordHeader(k), [][]string{recordRow(k, index, in)})
			})
		},
	}
}

func recordEditCmd(app *application, k recordKind) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: fmt.Sprintf("Edit a %s; omitted fields keep their value", k.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := services.ParseIndex(args[0])
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				current, err := k.get(svc, index)
				if err != nil {
					return err
				}
				res, err := k.edit(cmd.Context(), svc, index, f.overlay(cmd, current))
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}
	f.register(cmd, k)
	return cmd
}

func recordDeleteCmd(app *application, k recordKind) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: fmt.Sprintf("Delete a %s", k.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := services.ParseIndex(args[0])
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(svc *services.LedgerService) error {
				in, err := k.get(svc, index)
				if err != nil {
					return err
				}
				q := fmt.Sprintf("Delete %s #%d (%s, %s)?", k.name, index, in.Description, in.Amount)
				if !app.confirm(cmd, yes, q) {
					printEmpty(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}
				res, err := k.del(cmd.Context(), svc, index)
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
