package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "memory"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "ledger.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "bilancio",
		AMQPQueue:    "ledger_changes",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "ledger.db", cfg.SQLiteDBPath)
	assert.Equal(t, "ledger_changes", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"file", Config{Type: FileBackend, LedgerFile: "l.txt"}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "l.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"file", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	tests := []struct {
		name   string
		config Config
		want   any
	}{
		{"file", Config{Type: FileBackend, LedgerFile: filepath.Join(dir, "data", "budget_data.txt")}, &storage.FileRepository{}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "bilancio.db")}, &storage.SQLiteRepository{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { res.Repository.Close() })

			assert.IsType(t, tt.want, res.Repository)
			assert.Nil(t, res.AMQP)

			s, err := res.Repository.Load(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, core.DefaultCategories, s.Categories())
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}
