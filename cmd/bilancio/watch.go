package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/export"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

func watchCmd(app *application) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print ledger change notifications as they arrive",
		Long: `Watch consumes the change notifications published after every saved
mutation. With --export it also re-exports the stored ledger after each
burst of changes. Stops on Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.cfg.AMQPEnabled() {
				return fmt.Errorf("watch needs AMQP_URL")
			}
			ctx := cmd.Context()

			res, err := app.openBackend(ctx)
			if err != nil {
				return err
			}
			defer res.Repository.Close()
			if res.AMQP == nil {
				return fmt.Errorf("could not connect to %s", app.cfg.AMQPExchange)
			}
			defer res.AMQP.Close()

			var processor *services.ExportProcessor
			if target != "" {
				var exp services.Exporter
				switch target {
				case "csv":
					exp = export.NewCSVExporter(app.cfg.ExportDir, app.logger)
				case "sheets":
					if exp, err = app.sheetsExporter(ctx); err != nil {
						return err
					}
				default:
					return fmt.Errorf("unknown export target %q (csv or sheets)", target)
				}
				pcfg := services.DefaultExportProcessorConfig()
				pcfg.PollInterval = app.cfg.ExportPollInterval
				pcfg.MaxRetries = app.cfg.ExportMaxRetries
				processor = services.NewExportProcessor(res.Repository, exp, pcfg, app.logger)
				if err := processor.Start(ctx); err != nil {
					return err
				}
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := processor.Stop(stopCtx); err != nil {
						app.logger.Warn("Export processor did not stop cleanly", applog.FieldError, err)
					}
				}()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.InfoStyle.Render("Waiting for ledger changes, press Ctrl-C to stop."))
			err = res.AMQP.ConsumeLedgerChanges(ctx, func(msg *amqp.LedgerChangeMessage) error {
				fmt.Fprintf(out, "%s  rev %d  %s %s",
					msg.Timestamp.Local().Format("2006-01-02 15:04:05"), msg.Revision, msg.Operation, msg.Entity)
				if msg.Index > 0 {
					fmt.Fprintf(out, " #%d", msg.Index)
				}
				fmt.Fprintln(out)
				if processor != nil {
					return processor.HandleChange(msg)
				}
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&target, "export", "", "re-export after changes (csv or sheets)")
	return cmd
}
