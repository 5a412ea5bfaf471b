package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// Loader reads the persisted ledger.
type Loader interface {
	Load(ctx context.Context) (*ledger.Store, error)
}

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// PollInterval is how often pending changes are checked (default: 5s).
	// Changes arriving within one interval produce a single export.
	PollInterval time.Duration

	// MaxRetries is the number of export attempts per batch (default: 3)
	MaxRetries int

	// RetryDelay is the pause between attempts (default: 2s)
	RetryDelay time.Duration
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: 5 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
	}
}

// ExportStats counts processed batches.
type ExportStats struct {
	Exports    int
	Failures   int
	LastExport time.Time
}

// ExportProcessor re-exports the persisted ledger after change notifications.
type ExportProcessor struct {
	loader   Loader
	exporter Exporter
	config   ExportProcessorConfig
	logger   *applog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	pending bool
	stats   ExportStats
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(loader Loader, exporter Exporter, config ExportProcessorConfig, logger *applog.Logger) *ExportProcessor {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportProcessor{
		loader:   loader,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(applog.ComponentExport),
	}
}

// HandleChange marks the ledger as changed. It matches the handler
// signature of amqp.Client.ConsumeLedgerChanges.
func (p *ExportProcessor) HandleChange(msg *amqp.LedgerChangeMessage) error {
	p.mu.Lock()
	p.pending = true
	p.mu.Unlock()

	p.logger.Debug("Ledger change queued for export",
		applog.FieldEntity, msg.Entity,
		applog.FieldOperation, msg.Operation,
		applog.FieldRevision, msg.Revision)
	return nil
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	p.logger.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion. After a
// timeout the loop may still be finishing; calling Stop again waits for it.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stop, done := p.stopCh, p.doneCh
	p.stopCh = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) Stats() ExportStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *ExportProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processPending(ctx, stop)
		}
	}
}

// processPending exports once if any change arrived since the last run.
func (p *ExportProcessor) processPending(ctx context.Context, stop <-chan struct{}) {
	p.mu.Lock()
	if !p.pending {
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.mu.Unlock()

	var err error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err = p.exportOnce(ctx); err == nil {
			p.mu.Lock()
			p.stats.Exports++
			p.stats.LastExport = time.Now()
			p.mu.Unlock()
			p.logger.InfoContext(ctx, "Ledger exported after change", "attempt", attempt)
			return
		}

		p.logger.WarnContext(ctx, "Export attempt failed",
			"attempt", attempt,
			applog.FieldError, err)

		if attempt < p.config.MaxRetries {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(p.config.RetryDelay):
			}
		}
	}

	p.mu.Lock()
	p.stats.Failures++
	p.mu.Unlock()
	p.logger.ErrorContext(ctx, "Export failed permanently after max retries",
		"attempts", p.config.MaxRetries,
		applog.FieldError, err)
}

func (p *ExportProcessor) exportOnce(ctx context.Context) error {
	s, err := p.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	return p.exporter.Export(ctx, s)
}
