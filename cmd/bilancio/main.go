package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/backend"
	"bilancio/internal/cache"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

var version = "dev"

// application carries what every command needs once the root command has
// loaded configuration.
type application struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *applog.Logger

	in  io.Reader
	now func() time.Time
}

func newRootCmd(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:   "bilancio",
		Short: "Personal finance ledger",
		Long: `bilancio keeps a personal ledger of incomes, expenses, recurring items,
category budgets and savings goals, and derives reports, summaries and
a balance forecast from it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default: ./bilancio.yaml or $HOME/.config/bilancio/bilancio.yaml)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "log format (text, json)")

	for _, k := range recordKinds {
		root.AddCommand(recordCmd(app, k))
	}
	root.AddCommand(budgetCmd(app))
	root.AddCommand(goalCmd(app))
	root.AddCommand(categoryCmd(app))
	root.AddCommand(reportCmd(app))
	root.AddCommand(summaryCmd(app))
	root.AddCommand(forecastCmd(app))
	root.AddCommand(exportCmd(app))
	root.AddCommand(resetCmd(app))
	root.AddCommand(watchCmd(app))

	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd(&application{in: os.Stdin}).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Failure(err.Error()))
		os.Exit(1)
	}
}

func (a *application) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cli.SetupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openBackend creates the configured repository and optional AMQP client.
func (a *application) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
}

// openLedger opens the backend and loads the ledger. The caller closes the
// returned service.
func (a *application) openLedger(ctx context.Context) (*services.LedgerService, error) {
	res, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLogger(a.logger),
		services.WithForecastMonths(a.cfg.ForecastMonths),
	}
	if a.now != nil {
		opts = append(opts, services.WithClock(a.now))
	}
	if a.cfg.CacheSize > 0 {
		opts = append(opts, services.WithCache(cache.NewLRUCache[string, any](a.cfg.CacheSize, a.cfg.CacheTTL)))
	}
	if res.AMQP != nil {
		opts = append(opts, services.WithNotifier(res.AMQP))
	}

	svc := services.NewLedgerService(res.Repository, opts...)
	if err := svc.Open(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// withLedger runs fn against an opened ledger and closes it afterwards.
func (a *application) withLedger(cmd *cobra.Command, fn func(svc *services.LedgerService) error) error {
	svc, err := a.openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("Failed to close ledger", applog.FieldError, err)
		}
	}()
	return fn(svc)
}

func (a *application) confirm(cmd *cobra.Command, yes bool, question string) bool {
	if yes {
		return true
	}
	return cli.Confirm(a.in, cmd.OutOrStdout(), question)
}

func printResult(cmd *cobra.Command, res services.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.Success(res.Message))
	if res.Warning != nil {
		fmt.Fprintln(out, cli.Warning(res.Warning.Error()))
	}
}
