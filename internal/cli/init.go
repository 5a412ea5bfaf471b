// Package cli provides common CLI initialization utilities and the styles
// used for terminal output.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/config"
	applog "bilancio/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logCfg.Component = applog.ComponentCLI
	if out != nil {
		logCfg.Output = out
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Confirm asks a yes/no question and reports whether the answer starts with y.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s %s ", WarningStyle.Render(question), SubtleStyle.Render("[y/N]:"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}
