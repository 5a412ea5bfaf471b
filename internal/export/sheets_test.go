package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the Sheets API calls made against one spreadsheet.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    []string
	added   []string
	cleared []string
	updates map[string][][]any
	failTab string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		var sheets []map[string]any
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		name := strings.TrimSuffix(path[strings.LastIndex(path, "/values/")+len("/values/"):], ":clear")
		if name == f.failTab {
			http.Error(w, `{"error":{"code":400,"message":"boom"}}`, http.StatusBadRequest)
			return
		}
		f.cleared = append(f.cleared, name)
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)

	case r.Method == http.MethodPut:
		name := path[strings.LastIndex(path, "/values/")+len("/values/"):]
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.updates[name] = vr.Values
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)

	default:
		http.NotFound(w, r)
	}
}

func newFakeExporter(t *testing.T, fake *fakeSheets) *SheetsExporter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	require.NoError(t, err)

	exp, err := NewSheetsExporter(svc, "sheet-1", nil)
	require.NoError(t, err)
	return exp
}

func TestSheetsExporter(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"goals", "Sheet1"}, updates: map[string][][]any{}}
	exp := newFakeExporter(t, fake)

	require.NoError(t, exp.Export(context.Background(), exportStore()))

	assert.ElementsMatch(t, []string{
		"incomes_onetime", "expenses_onetime", "incomes_recurring", "expenses_recurring", "budget", "categories",
	}, fake.added)
	assert.Len(t, fake.cleared, 7)
	require.Len(t, fake.updates, 7)

	assert.Equal(t, [][]any{
		{"Name", "TargetAmount", "CurrentAmount", "DueDate"},
		{"Bike", "1000.00", "25.50", "2025-12-01"},
	}, fake.updates["goals!A1"])
}

func TestSheetsExporterFailure(t *testing.T) {
	fake := &fakeSheets{updates: map[string][][]any{}, failTab: "budget"}
	exp := newFakeExporter(t, fake)

	err := exp.Export(context.Background(), exportStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear budget")
}

func TestNewSheetsExporterRequiresID(t *testing.T) {
	_, err := NewSheetsExporter(nil, " ", nil)
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestLoadCredentials(t *testing.T) {
	got, err := LoadCredentials(` {"type":"service_account"} `, "ignored")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(got))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"file"}`), 0o600))
	got, err = LoadCredentials("", path)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"file"}`, string(got))

	_, err = LoadCredentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadCredentials("", "")
	assert.ErrorContains(t, err, "missing service account credentials")
}
