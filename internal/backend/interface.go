package backend

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/storage"
)

// BackendResult holds the repository and, when configured, the AMQP client
// used for change notifications.
type BackendResult struct {
	Repository storage.Repository
	AMQP       *amqp.Client
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	LedgerFile string

	// SQLite specific
	SQLiteDBPath string

	// Change notifications, optional for both backends
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// IsValid checks if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

func (bt BackendType) String() string {
	return string(bt)
}
