package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// sheetsConcurrency caps parallel tab updates to stay under API quotas.
const sheetsConcurrency = 3

// SheetsExporter mirrors every table into its own tab of a spreadsheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *applog.Logger
}

// LoadCredentials returns service account JSON, preferring the inline value
// over the file path.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// NewSheetsService creates a Sheets service authenticated as a service account.
func NewSheetsService(ctx context.Context, credentialsJSON []byte, opts ...goption.ClientOption) (*gsheet.Service, error) {
	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func NewSheetsExporter(svc *gsheet.Service, spreadsheetID string, logger *applog.Logger) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}, nil
}

// Export creates missing tabs, then clears and rewrites each one.
func (e *SheetsExporter) Export(ctx context.Context, s *ledger.Store) error {
	tables := Tables(s)
	if err := e.ensureTabs(ctx, tables); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sheetsConcurrency)
	for _, t := range tables {
		g.Go(func() error {
			return e.writeTab(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Spreadsheet export written",
		"spreadsheet_id", e.spreadsheetID,
		"tabs", len(tables))
	return nil
}

func (e *SheetsExporter) ensureTabs(ctx context.Context, tables []Table) error {
	sp, err := e.svc.Spreadsheets.Get(e.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(sp.Sheets))
	for _, sh := range sp.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var requests []*gsheet.Request
	for _, t := range tables {
		if existing[t.Name] {
			continue
		}
		requests = append(requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: t.Name}},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	_, err = e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet tabs: %w", err)
	}
	e.logger.DebugContext(ctx, "Created sheet tabs", "count", len(requests))
	return nil
}

func (e *SheetsExporter) writeTab(ctx context.Context, t Table) error {
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, t.Name, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}

	values := make([][]any, 0, len(t.Rows)+1)
	values = append(values, toRow(t.Header))
	for _, r := range t.Rows {
		values = append(values, toRow(r))
	}

	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, t.Name+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", t.Name, err)
	}
	return nil
}

func toRow(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
