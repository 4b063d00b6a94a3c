package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

const (
	jsonOutputFormat  = "json"
	tableOutputFormat = "table"
)

var (
	cfgFile      string
	debug        bool
	outputFormat string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:          "budgetctl",
	Short:        "Maintenance commands for the budget tracker",
	Long:         `Run migrations, materialize recurring expenses, generate paychecks and backfill the ledger export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if !slices.Contains([]string{tableOutputFormat, jsonOutputFormat}, outputFormat) {
			return fmt.Errorf("invalid output format %q: must be %s or %s", outputFormat, tableOutputFormat, jsonOutputFormat)
		}

		cli.LoadEnvFile()
		if cfgFile != "" {
			if err := os.Setenv(config.PathEnv, cfgFile); err != nil {
				return fmt.Errorf("set config path: %w", err)
			}
		}

		var err error
		cfg, err = cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		// Logs go to stderr so JSON output stays machine readable.
		level := log.ParseLevel(cfg.Log.Level)
		if debug {
			level = log.ParseLevel("debug")
		}
		logger = log.New(log.Config{
			Level:     level,
			Component: log.ComponentCLI,
			Format:    cfg.Log.Format,
			Output:    os.Stderr,
		})
		log.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $BUDGET_CONFIG or config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", tableOutputFormat, "output format (table or json)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(paychecksCmd)
	rootCmd.AddCommand(periodsCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(exportCmd)
}

// session bundles what the data commands need for one run.
type session struct {
	backend *backend.BackendResult
	ledger  *services.LedgerService
}

func openSession(ctx context.Context) (*session, error) {
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		backend: res,
		ledger:  services.NewLedgerService(res.Store, res.Events(), logger),
	}, nil
}

func (s *session) Close() {
	if err := s.ledger.Close(); err != nil {
		logger.Warn("Failed to close ledger", log.FieldError, err)
	}
}

// parseDateFlag reads a YYYY-MM-DD flag; an empty value yields fallback.
func parseDateFlag(name, value string, fallback core.Date) (core.Date, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	return d, nil
}

func today() core.Date {
	return core.DateOf(time.Now())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func outputJSON(data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Println(string(jsonData))
	return nil
}

func createStyledTable(headers ...string) *table.Table {
	var (
		green     = lipgloss.Color("35")
		gray      = lipgloss.Color("245")
		lightGray = lipgloss.Color("241")

		headerStyle  = lipgloss.NewStyle().Foreground(green).Bold(true).Align(lipgloss.Center)
		cellStyle    = lipgloss.NewStyle().Padding(0, 1)
		oddRowStyle  = cellStyle.Foreground(gray)
		evenRowStyle = cellStyle.Foreground(lightGray)
	)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(green)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return evenRowStyle
			default:
				return oddRowStyle
			}
		}).
		Headers(headers...)
}
