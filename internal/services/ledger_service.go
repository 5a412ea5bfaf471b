package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// Entity names used in logs and change notifications.
const (
	EntityIncome           = "income"
	EntityExpense          = "expense"
	EntityRecurringIncome  = "recurring_income"
	EntityRecurringExpense = "recurring_expense"
	EntityBudget           = "budget"
	EntityGoal             = "goal"
	EntityCategory         = "category"
	EntityLedger           = "ledger"
)

const DefaultForecastMonths = 6

// Notifier is told about every change that reached storage.
type Notifier interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// Exporter receives a snapshot of the ledger.
type Exporter interface {
	Export(ctx context.Context, s *ledger.Store) error
}

// Result describes an accepted mutation. A non-nil Warning means the change
// was applied in memory but could not be saved.
type Result struct {
	Message string
	Index   int
	Warning error
}

// LedgerService orchestrates ledger operations: validate, apply in memory,
// save the whole ledger, then notify.
type LedgerService struct {
	mu       sync.Mutex
	store    *ledger.Store
	repo     storage.Repository
	notifier Notifier
	cache    *cache.LRUCache[string, any]
	now      func() time.Time
	logger   *applog.Logger

	forecastMonths int
	revision       int64
}

type Option func(*LedgerService)

func WithNotifier(n Notifier) Option {
	return func(s *LedgerService) { s.notifier = n }
}

// WithCache memoises derived results. Entries are keyed by revision, so a
// mutation makes every older entry unreachable.
func WithCache(c *cache.LRUCache[string, any]) Option {
	return func(s *LedgerService) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func WithForecastMonths(n int) Option {
	return func(s *LedgerService) { s.forecastMonths = n }
}

func NewLedgerService(repo storage.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:          ledger.New(),
		repo:           repo,
		now:            time.Now,
		logger:         applog.Discard(),
		forecastMonths: DefaultForecastMonths,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentLedger)
	return s
}

// Open loads the ledger from the repository, replacing the in-memory state.
func (s *LedgerService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	st, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	s.store = st
	s.revision++

	s.logger.InfoContext(ctx, "Ledger loaded",
		"incomes", len(st.Incomes),
		"expenses", len(st.Expenses),
		"recurring_incomes", len(st.RecurringIncomes),
		"recurring_expenses", len(st.RecurringExpenses),
		"goals", len(st.Goals),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Close releases the repository and, when it holds one, the notifier.
func (s *LedgerService) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.notifier.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

// Today is the service clock truncated to a date.
func (s *LedgerService) Today() core.Date {
	return core.DateOf(s.now())
}

func (s *LedgerService) ForecastMonths() int {
	return s.forecastMonths
}

// commit persists the current state after a mutation. Must be called with
// s.mu held.
func (s *LedgerService) commit(ctx context.Context, entity, op string, index int, msg string) Result {
	s.revision++
	res := Result{Message: msg, Index: index}
	fields := applog.NewFields().WithRecord(entity, index)

	if s.repo != nil {
		if err := s.repo.Save(ctx, s.store); err != nil {
			applog.LogError(ctx, s.logger, "Failed to save ledger", err, applog.OpSave, fields)
			res.Warning = fmt.Errorf("change applied but not saved: %w", err)
			return res
		}
	}

	s.logger.InfoContext(ctx, msg,
		append(fields.WithOperation(op).ToSlice(), applog.FieldRevision, s.revision)...)

	if s.notifier != nil {
		m := amqp.NewLedgerChangeMessage(entity, op, index, s.revision)
		if err := s.notifier.PublishLedgerChange(ctx, m); err != nil {
			applog.LogError(ctx, s.logger, "Failed to publish ledger change", err, applog.OpPublish, fields)
		}
	}
	return res
}

func (s *LedgerService) requireCategory(category string) error {
	if !s.store.HasCategory(category) {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}
	return nil
}

func normalizeIncome(v core.Income) core.Income {
	v.Description = strings.TrimSpace(v.Description)
	return v
}

func normalizeExpense(v core.Expense) core.Expense {
	v.Description = strings.TrimSpace(v.Description)
	v.Category = core.NormalizeCategory(v.Category)
	return v
}

// Incomes

func (s *LedgerService) AddIncome(ctx context.Context, v core.Income) (Result, error) {
	v = normalizeIncome(v)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.store.AddIncome(v)
	return s.commit(ctx, EntityIncome, applog.OpCreate, i, "Income added"), nil
}

func (s *LedgerService) Income(index int) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Income(index)
}

func (s *LedgerService) EditIncome(ctx context.Context, index int, v core.Income) (Result, error) {
	v = normalizeIncome(v)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.UpdateIncome(index, v); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityIncome, applog.OpUpdate, index, "Income updated"), nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteIncome(index); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityIncome, applog.OpDelete, index, "Income deleted"), nil
}

func (s *LedgerService) Incomes() []core.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store.Incomes)
}

// Expenses

func (s *LedgerService) AddExpense(ctx context.Context, v core.Expense) (Result, error) {
	v = normalizeExpense(v)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireCategory(v.Category); err != nil {
		return Result{}, err
	}
	i := s.store.AddExpense(v)
	return s.commit(ctx, EntityExpense, applog.OpCreate, i, "Expense added"), nil
}

func (s *LedgerService) Expense(index int) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Expense(index)
}

func (s *LedgerService) EditExpense(ctx context.Context, index int, v core.Expense) (Result, error) {
	v = normalizeExpense(v)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireCategory(v.Category); err != nil {
		return Result{}, err
	}
	if err := s.store.UpdateExpense(index, v); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityExpense, applog.OpUpdate, index, "Expense updated"), nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteExpense(index); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityExpense, applog.OpDelete, index, "Expense deleted"), nil
}

func (s *LedgerService) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store.Expenses)
}

// Recurring incomes

func (s *LedgerService) AddRecurringIncome(ctx context.Context, v core.RecurringIncome) (Result, error) {
	v.Income = normalizeIncome(v.Income)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.store.AddRecurringIncome(v)
	return s.commit(ctx, EntityRecurringIncome, applog.OpCreate, i, "Recurring income added"), nil
}

func (s *LedgerService) RecurringIncome(index int) (core.RecurringIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RecurringIncome(index)
}

func (s *LedgerService) EditRecurringIncome(ctx context.Context, index int, v core.RecurringIncome) (Result, error) {
	v.Income = normalizeIncome(v.Income)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.UpdateRecurringIncome(index, v); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityRecurringIncome, applog.OpUpdate, index, "Recurring income updated"), nil
}

func (s *LedgerService) DeleteRecurringIncome(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteRecurringIncome(index); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityRecurringIncome, applog.OpDelete, index, "Recurring income deleted"), nil
}

func (s *LedgerService) RecurringIncomes() []core.RecurringIncome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store.RecurringIncomes)
}

// Recurring expenses

func (s *LedgerService) AddRecurringExpense(ctx context.Context, v core.RecurringExpense) (Result, error) {
	v.Expense = normalizeExpense(v.Expense)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireCategory(v.Category); err != nil {
		return Result{}, err
	}
	i := s.store.AddRecurringExpense(v)
	return s.commit(ctx, EntityRecurringExpense, applog.OpCreate, i, "Recurring expense added"), nil
}

func (s *LedgerService) RecurringExpense(index int) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RecurringExpense(index)
}

func (s *LedgerService) EditRecurringExpense(ctx context.Context, index int, v core.RecurringExpense) (Result, error) {
	v.Expense = normalizeExpense(v.Expense)
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireCategory(v.Category); err != nil {
		return Result{}, err
	}
	if err := s.store.UpdateRecurringExpense(index, v); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityRecurringExpense, applog.OpUpdate, index, "Recurring expense updated"), nil
}

func (s *LedgerService) DeleteRecurringExpense(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteRecurringExpense(index); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityRecurringExpense, applog.OpDelete, index, "Recurring expense deleted"), nil
}

func (s *LedgerService) RecurringExpenses() []core.RecurringExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store.RecurringExpenses)
}

// Budgets

// SetBudget stores the limit for an existing category, overwriting any
// previous limit.
func (s *LedgerService) SetBudget(ctx context.Context, category string, limit core.Money) (Result, error) {
	category = core.NormalizeCategory(category)
	if category == "" {
		return Result{}, core.ErrEmptyCategory
	}
	if err := core.ValidateName(category); err != nil {
		return Result{}, err
	}
	if limit.IsNegative() {
		return Result{}, core.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireCategory(category); err != nil {
		return Result{}, err
	}
	s.store.SetBudget(category, limit)
	return s.commit(ctx, EntityBudget, applog.OpUpdate, 0, fmt.Sprintf("Budget for %s set to %s", category, limit)), nil
}

func (s *LedgerService) Budget(category string) (core.Money, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Budget(category)
}

// Budgets evaluates every limit against all effective expenses up to today.
func (s *LedgerService) Budgets() ([]BudgetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cached(s, "budgets", func() ([]BudgetStatus, error) {
		eff, err := EffectiveRecords(s.store, s.Today())
		if err != nil {
			return nil, err
		}
		return EvaluateBudgets(s.store, eff.Expenses), nil
	})
}

func (s *LedgerService) BudgetLimits() map[string]core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.store.Budgets)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, category string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.DeleteBudget(category) {
		return Result{}, fmt.Errorf("%w: no budget for %q", core.ErrUnknownCategory, category)
	}
	return s.commit(ctx, EntityBudget, applog.OpDelete, 0, fmt.Sprintf("Budget for %s deleted", core.NormalizeCategory(category))), nil
}

// Goals

func normalizeGoal(g core.Goal) core.Goal {
	g.Name = strings.TrimSpace(g.Name)
	return g
}

func (s *LedgerService) AddGoal(ctx context.Context, g core.Goal) (Result, error) {
	g = normalizeGoal(g)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkGoal(s.store, 0, g); err != nil {
		return Result{}, err
	}
	i := s.store.AddGoal(g)
	return s.commit(ctx, EntityGoal, applog.OpCreate, i, "Goal added"), nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, index int, g core.Goal) (Result, error) {
	g = normalizeGoal(g)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.Goal(index); err != nil {
		return Result{}, err
	}
	if err := checkGoal(s.store, index, g); err != nil {
		return Result{}, err
	}
	if err := s.store.UpdateGoal(index, g); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityGoal, applog.OpUpdate, index, "Goal updated"), nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteGoal(index); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, EntityGoal, applog.OpDelete, index, "Goal deleted"), nil
}

func (s *LedgerService) Goal(index int) (GoalView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.store.Goal(index)
	if err != nil {
		return GoalView{}, err
	}
	v := GoalViews([]core.Goal{g}, s.Today())[0]
	v.Index = index
	return v, nil
}

// FindGoal returns the 1-based index of a goal by name, ignoring case.
func (s *LedgerService) FindGoal(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FindGoal(name)
}

func (s *LedgerService) Goals() []GoalView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GoalViews(s.store.Goals, s.Today())
}

// Categories

func (s *LedgerService) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Categories()
}

func (s *LedgerService) AddCategory(ctx context.Context, category string) (Result, error) {
	category = core.NormalizeCategory(category)
	if category == "" {
		return Result{}, core.ErrEmptyCategory
	}
	if err := core.ValidateName(category); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.AddCategory(category) {
		return Result{}, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, category)
	}
	return s.commit(ctx, EntityCategory, applog.OpCreate, 0, fmt.Sprintf("Category %s added", category)), nil
}

// RemoveCategory drops a category from the set. Records and budgets that
// reference it keep their value.
func (s *LedgerService) RemoveCategory(ctx context.Context, category string) (Result, error) {
	category = core.NormalizeCategory(category)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.RemoveCategory(category) {
		return Result{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}
	return s.commit(ctx, EntityCategory, applog.OpDelete, 0, fmt.Sprintf("Category %s removed", category)), nil
}

// Reset clears every record and restores the default categories.
func (s *LedgerService) Reset(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	return s.commit(ctx, EntityLedger, applog.OpReset, 0, "All data cleared")
}

// Derived results

// Report builds the filtered report dated today.
func (s *LedgerService) Report(f Filters) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f = f.Normalize()
	key := fmt.Sprintf("report|%s|%s|%s|%s", f.Keyword, f.Category, f.Month, f.Year)
	return cached(s, key, func() (*Report, error) {
		return BuildReport(s.store, s.Today(), f)
	})
}

func (s *LedgerService) effective() (Effective, error) {
	return cached(s, "effective", func() (Effective, error) {
		return EffectiveRecords(s.store, s.Today())
	})
}

// MonthlySummary totals the effective records up to today per month.
func (s *LedgerService) MonthlySummary() ([]core.PeriodSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cached(s, "monthly", func() ([]core.PeriodSummary, error) {
		eff, err := s.effective()
		if err != nil {
			return nil, err
		}
		return MonthlySummary(eff.Incomes, eff.Expenses), nil
	})
}

// YearlySummary rolls the monthly summary up to years.
func (s *LedgerService) YearlySummary() ([]core.PeriodSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cached(s, "yearly", func() ([]core.PeriodSummary, error) {
		eff, err := s.effective()
		if err != nil {
			return nil, err
		}
		return YearlySummary(MonthlySummary(eff.Incomes, eff.Expenses)), nil
	})
}

// ExpenseByCategory ranks categories by effective spend, largest first.
func (s *LedgerService) ExpenseByCategory() ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cached(s, "by-category", func() ([]core.CategoryAmount, error) {
		eff, err := s.effective()
		if err != nil {
			return nil, err
		}
		return RankCategories(ExpenseByCategory(eff.Expenses)), nil
	})
}

func (s *LedgerService) CurrentBalance() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CurrentBalance(s.store)
}

// Forecast projects the balance over the next months, starting from the
// current balance.
func (s *LedgerService) Forecast(months int) []core.ForecastMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, _ := cached(s, fmt.Sprintf("forecast|%d", months), func() ([]core.ForecastMonth, error) {
		return Forecast(CurrentBalance(s.store), s.store.RecurringIncomes, s.store.RecurringExpenses, months, s.Today()), nil
	})
	return out
}

// Export hands a snapshot of the ledger to exp. The service stays usable
// while the export runs.
func (s *LedgerService) Export(ctx context.Context, exp Exporter) error {
	s.mu.Lock()
	snapshot := s.store.Clone()
	s.mu.Unlock()

	start := time.Now()
	if err := exp.Export(ctx, snapshot); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// cached memoises a derived result under the current revision and date.
// Must be called with s.mu held. Cached values are shared; callers must
// not modify them.
func cached[T any](s *LedgerService, key string, compute func() (T, error)) (T, error) {
	if s.cache == nil {
		return compute()
	}
	full := fmt.Sprintf("%d|%s|%s", s.revision, s.Today(), key)
	if v, ok := s.cache.Get(full); ok {
		if t, ok := v.(T); ok {
			s.logger.Debug("Cache hit", "key", full)
			return t, nil
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	s.cache.Set(full, v)
	return v, nil
}
