// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/budget, cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/ports"
	gsheet "budget/internal/sheets/google"
	memsheet "budget/internal/sheets/memory"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the layered configuration and validates it.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig for the long-running binaries: a bad
// configuration is printed and the process exits.
func MustLoadConfig() *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the application logger from the log section and sets
// it as the slog default.
func SetupLogger(cfg config.Log, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.Level),
		Component: component,
		Format:    cfg.Format,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// OpenBackend creates the configured store and optional event publisher.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}
	return res, nil
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured, and the in-memory dry-run exporter otherwise.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (ports.LedgerExporter, error) {
	if !cfg.ExportEnabled() {
		logger.Info("Google Sheets export disabled, rows are kept in memory")
		return memsheet.New(), nil
	}

	x, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		SheetName:       cfg.Sheets.SheetName,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		CredentialsJSON: cfg.Sheets.CredentialsJSON,
		TokenFile:       cfg.Sheets.TokenFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("google sheets exporter: %w", err)
	}
	if err := x.EnsureHeader(ctx); err != nil {
		logger.WarnContext(ctx, "Could not write the ledger header row", log.FieldError, err)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
	return x, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
