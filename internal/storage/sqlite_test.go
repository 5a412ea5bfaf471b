package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func newTestSQLite(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bilancio.db")
	repo, err := NewSQLiteRepository(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func TestSQLiteRepositoryEmptyLoad(t *testing.T) {
	repo, dbPath := newTestSQLite(t)

	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.ElementsMatch(t, core.DefaultCategories, s.Categories())

	version, dirty, err := SchemaVersion(dbPath)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestSQLiteRepositorySaveLoad(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSQLite(t)

	orig := sampleStore()
	require.NoError(t, repo.Save(ctx, orig))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, orig.Incomes, got.Incomes)
	assert.Equal(t, orig.Expenses, got.Expenses)
	assert.Equal(t, orig.RecurringIncomes, got.RecurringIncomes)
	assert.Equal(t, orig.RecurringExpenses, got.RecurringExpenses)
	assert.Equal(t, orig.Goals, got.Goals)
	assert.Equal(t, orig.Budgets, got.Budgets)
	assert.Equal(t, orig.Categories(), got.Categories())
}

func TestSQLiteRepositorySaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSQLite(t)

	require.NoError(t, repo.Save(ctx, sampleStore()))

	s := ledger.New()
	s.AddIncome(core.Income{Amount: core.Money{Cents: 500}, Description: "Refund", Date: core.NewDate(2025, 3, 1)})
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Incomes, 1)
	assert.Equal(t, "Refund", got.Incomes[0].Description)
	assert.Empty(t, got.Expenses)
	assert.Empty(t, got.Goals)
	assert.Empty(t, got.Budgets)
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "bilancio.db")

	repo, err := NewSQLiteRepository(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sampleStore()))
	require.NoError(t, repo.Close())

	// migrations are idempotent on an existing database
	repo, err = NewSQLiteRepository(dbPath, nil)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Expenses, 2)
}
