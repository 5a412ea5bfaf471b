// Package storage persists the ledger. Every save rewrites the whole ledger;
// there are no partial updates.
package storage

import (
	"context"

	"bilancio/internal/ledger"
)

// Repository loads and saves the complete ledger.
type Repository interface {
	// Load returns the stored ledger, or a fresh one seeded with the
	// default categories when nothing has been stored yet.
	Load(ctx context.Context) (*ledger.Store, error)

	// Save replaces the stored ledger with s.
	Save(ctx context.Context, s *ledger.Store) error

	Close() error
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
