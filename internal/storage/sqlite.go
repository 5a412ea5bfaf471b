package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the ledger in SQLite, one table per collection.
// Row positions preserve list order.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps the whole-ledger rewrite serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads every table in position order. Rows that no longer validate
// are logged and skipped, like malformed lines in the text format.
func (r *SQLiteRepository) Load(ctx context.Context) (*ledger.Store, error) {
	s := ledger.NewEmpty()

	skip := func(table string, pos int64, err error) {
		r.logger.WarnContext(ctx, "Skipped invalid ledger row",
			applog.FieldSection, table,
			applog.FieldLine, pos,
			applog.FieldError, err)
	}

	err := queryRows(ctx, r.db, `SELECT position, amount_cents, description, date FROM incomes ORDER BY position`,
		func(rows *sql.Rows) error {
			var (
				pos, cents int64
				desc, date string
			)
			if err := rows.Scan(&pos, &cents, &desc, &date); err != nil {
				return err
			}
			d, err := core.ParseDate(date)
			if err != nil {
				skip("incomes", pos, err)
				return nil
			}
			s.AddIncome(core.Income{Amount: core.Money{Cents: cents}, Description: desc, Date: d})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load incomes: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT position, amount_cents, description, category, date FROM expenses ORDER BY position`,
		func(rows *sql.Rows) error {
			var (
				pos, cents           int64
				desc, category, date string
			)
			if err := rows.Scan(&pos, &cents, &desc, &category, &date); err != nil {
				return err
			}
			d, err := core.ParseDate(date)
			if err != nil {
				skip("expenses", pos, err)
				return nil
			}
			s.AddExpense(core.Expense{Amount: core.Money{Cents: cents}, Description: desc, Category: category, Date: d})
			s.AddCategory(category)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT position, amount_cents, description, start_date, frequency, repetitions FROM recurring_incomes ORDER BY position`,
		func(rows *sql.Rows) error {
			var (
				pos, cents        int64
				desc, start, freq string
				reps              int
			)
			if err := rows.Scan(&pos, &cents, &desc, &start, &freq, &reps); err != nil {
				return err
			}
			d, rec, err := decodeRecurringRow(start, freq, reps)
			if err != nil {
				skip("recurring_incomes", pos, err)
				return nil
			}
			s.AddRecurringIncome(core.RecurringIncome{
				Income:     core.Income{Amount: core.Money{Cents: cents}, Description: desc, Date: d},
				Recurrence: rec,
			})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load recurring incomes: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT position, amount_cents, description, category, start_date, frequency, repetitions FROM recurring_expenses ORDER BY position`,
		func(rows *sql.Rows) error {
			var (
				pos, cents                  int64
				desc, category, start, freq string
				reps                        int
			)
			if err := rows.Scan(&pos, &cents, &desc, &category, &start, &freq, &reps); err != nil {
				return err
			}
			d, rec, err := decodeRecurringRow(start, freq, reps)
			if err != nil {
				skip("recurring_expenses", pos, err)
				return nil
			}
			s.AddRecurringExpense(core.RecurringExpense{
				Expense:    core.Expense{Amount: core.Money{Cents: cents}, Description: desc, Category: category, Date: d},
				Recurrence: rec,
			})
			s.AddCategory(category)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load recurring expenses: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT position, name, target_cents, current_cents, due_date FROM goals ORDER BY position`,
		func(rows *sql.Rows) error {
			var (
				pos, target, current int64
				name, due            string
			)
			if err := rows.Scan(&pos, &name, &target, &current, &due); err != nil {
				return err
			}
			d, err := core.ParseDate(due)
			if err != nil {
				skip("goals", pos, err)
				return nil
			}
			s.AddGoal(core.Goal{Name: name, Target: core.Money{Cents: target}, Current: core.Money{Cents: current}, Due: d})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT category, limit_cents FROM budgets ORDER BY category`,
		func(rows *sql.Rows) error {
			var (
				category string
				limit    int64
			)
			if err := rows.Scan(&category, &limit); err != nil {
				return err
			}
			s.SetBudget(category, core.Money{Cents: limit})
			s.AddCategory(category)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	err = queryRows(ctx, r.db, `SELECT name FROM categories ORDER BY position`,
		func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			s.AddCategory(name)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	if len(s.Categories()) == 0 {
		s.SetCategories(core.DefaultCategories)
	}
	return s, nil
}

func decodeRecurringRow(start, freq string, reps int) (core.Date, core.Recurrence, error) {
	d, err := core.ParseDate(start)
	if err != nil {
		return core.Date{}, core.Recurrence{}, err
	}
	f, err := core.ParseFrequency(freq)
	if err != nil {
		return core.Date{}, core.Recurrence{}, err
	}
	rec := core.Recurrence{Frequency: f, Repetitions: reps}
	if err := rec.Validate(); err != nil {
		return core.Date{}, core.Recurrence{}, err
	}
	return d, rec, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

var ledgerTables = []string{
	"incomes", "expenses", "recurring_incomes", "recurring_expenses", "goals", "budgets", "categories",
}

// Save replaces every row in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, s *ledger.Store) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range ledgerTables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, v := range s.Incomes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO incomes (position, amount_cents, description, date) VALUES (?, ?, ?, ?)`,
			i+1, v.Amount.Cents, v.Description, v.Date.String()); err != nil {
			return fmt.Errorf("insert income %d: %w", i+1, err)
		}
	}
	for i, v := range s.Expenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (position, amount_cents, description, category, date) VALUES (?, ?, ?, ?, ?)`,
			i+1, v.Amount.Cents, v.Description, v.Category, v.Date.String()); err != nil {
			return fmt.Errorf("insert expense %d: %w", i+1, err)
		}
	}
	for i, v := range s.RecurringIncomes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO recurring_incomes (position, amount_cents, description, start_date, frequency, repetitions) VALUES (?, ?, ?, ?, ?, ?)`,
			i+1, v.Amount.Cents, v.Description, v.Date.String(), v.Frequency.String(), v.Repetitions); err != nil {
			return fmt.Errorf("insert recurring income %d: %w", i+1, err)
		}
	}
	for i, v := range s.RecurringExpenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO recurring_expenses (position, amount_cents, description, category, start_date, frequency, repetitions) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i+1, v.Amount.Cents, v.Description, v.Category, v.Date.String(), v.Frequency.String(), v.Repetitions); err != nil {
			return fmt.Errorf("insert recurring expense %d: %w", i+1, err)
		}
	}
	for i, g := range s.Goals {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO goals (position, name, target_cents, current_cents, due_date) VALUES (?, ?, ?, ?, ?)`,
			i+1, g.Name, g.Target.Cents, g.Current.Cents, g.Due.String()); err != nil {
			return fmt.Errorf("insert goal %d: %w", i+1, err)
		}
	}
	for _, k := range s.BudgetKeys() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO budgets (category, limit_cents) VALUES (?, ?)`,
			k, s.Budgets[k].Cents); err != nil {
			return fmt.Errorf("insert budget %q: %w", k, err)
		}
	}
	for i, c := range s.Categories() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO categories (position, name) VALUES (?, ?)`, i+1, c); err != nil {
			return fmt.Errorf("insert category %q: %w", c, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}
