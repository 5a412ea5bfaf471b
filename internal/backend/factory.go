package backend

import (
	"context"
	"fmt"

	"bilancio/internal/amqp"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the configured repository. An unreachable broker is
// logged and the backend runs without notifications.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.Repository
		err  error
	)
	switch config.Type {
	case FileBackend:
		repo, err = f.createFileBackend(ctx, config)
	case SQLiteBackend:
		repo, err = f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	return &BackendResult{
		Repository: repo,
		AMQP:       f.connectAMQP(ctx, config),
	}, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (storage.Repository, error) {
	repo, err := storage.NewFileRepository(ctx, config.LedgerFile, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger file: %w", err)
	}
	f.logger.Debug("Initialized file backend", applog.FieldPath, config.LedgerFile)
	return repo, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Debug("Initialized SQLite backend", applog.FieldPath, config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) connectAMQP(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications",
			applog.FieldError, err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
