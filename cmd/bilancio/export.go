package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/export"
	"bilancio/internal/services"
)

func exportCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as tables",
	}
	cmd.AddCommand(exportCSVCmd(app), exportSheetsCmd(app))
	return cmd
}

func exportCSVCmd(app *application) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write one CSV file per table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = app.cfg.ExportDir
			}
			return runExport(cmd, app, export.NewCSVExporter(dir, app.logger), "Exported to "+dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from EXPORT_DIR)")
	return cmd
}

func exportSheetsCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Rewrite one tab per table in a Google spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exp, err := app.sheetsExporter(cmd.Context())
			if err != nil {
				return err
			}
			return runExport(cmd, app, exp, "Exported to spreadsheet "+app.cfg.GoogleSpreadsheetID)
		},
	}
}

func runExport(cmd *cobra.Command, app *application, exp services.Exporter, done string) error {
	return app.withLedger(cmd, func(svc *services.LedgerService) error {
		if err := svc.Export(cmd.Context(), exp); err != nil {
			return err
		}
		printResult(cmd, services.Result{Message: done})
		return nil
	})
}

func (a *application) sheetsExporter(ctx context.Context) (*export.SheetsExporter, error) {
	if !a.cfg.SheetsEnabled() {
		return nil, fmt.Errorf("sheets export needs GOOGLE_SPREADSHEET_ID")
	}
	creds, err := export.LoadCredentials(a.cfg.GoogleServiceAccountJSON, a.cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	svc, err := export.NewSheetsService(ctx, creds)
	if err != nil {
		return nil, err
	}
	return export.NewSheetsExporter(svc, a.cfg.GoogleSpreadsheetID, a.logger)
}
