package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// CSVExporter writes one <table>.csv file per table into Dir.
type CSVExporter struct {
	Dir    string
	logger *applog.Logger
}

func NewCSVExporter(dir string, logger *applog.Logger) *CSVExporter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &CSVExporter{Dir: dir, logger: logger.WithComponent(applog.ComponentExport)}
}

// Export writes every table concurrently and returns the first failure.
func (e *CSVExporter) Export(ctx context.Context, s *ledger.Store) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range Tables(s) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.writeTable(t)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "CSV export written", applog.FieldPath, e.Dir)
	return nil
}

func (e *CSVExporter) writeTable(t Table) error {
	path := filepath.Join(e.Dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
