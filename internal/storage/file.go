package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// FileRepository keeps the ledger in a single UTF-8 text file.
type FileRepository struct {
	path   string
	logger *applog.Logger
}

// NewFileRepository prepares the data directory and, on first run, writes an
// empty ledger with the default categories.
func NewFileRepository(ctx context.Context, path string, logger *applog.Logger) (*FileRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	r := &FileRepository{path: path, logger: logger.WithComponent(applog.ComponentStorage)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := r.Save(ctx, ledger.New()); err != nil {
			return nil, fmt.Errorf("initialise ledger file: %w", err)
		}
		r.logger.InfoContext(ctx, "Created new ledger file", applog.FieldPath, path)
	} else if err != nil {
		return nil, fmt.Errorf("stat ledger file: %w", err)
	}
	return r, nil
}

func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the file. Lines that cannot be parsed are logged and skipped.
func (r *FileRepository) Load(ctx context.Context) (*ledger.Store, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return ledger.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	s, diags, err := Decode(f)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		r.logger.WarnContext(ctx, "Skipped malformed ledger line",
			applog.FieldPath, r.path,
			applog.FieldLine, d.Line,
			applog.FieldSection, d.Section,
			"reason", d.Reason)
	}
	return s, nil
}

// Save encodes the ledger to a temporary file next to the target and renames
// it into place, so a failed write never truncates the previous ledger.
func (r *FileRepository) Save(ctx context.Context, s *ledger.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	r.logger.DebugContext(ctx, "Ledger saved", applog.FieldPath, r.path, "bytes", buf.Len())
	return nil
}

func (r *FileRepository) Close() error {
	return nil
}
