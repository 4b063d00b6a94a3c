package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"budget/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.DB.Backend != "sqlite" {
			return fmt.Errorf("migrations only apply to the sqlite backend, configured backend is %q", cfg.DB.Backend)
		}
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := storage.RunMigrations(cfg.DB.Path); err != nil {
			return err
		}
		logger.Info("Migrations applied", "path", cfg.DB.Path)
		return printVersion()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (one step by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = n
		}
		if err := storage.MigrateDown(cfg.DB.Path, steps); err != nil {
			return err
		}
		logger.Info("Migrations rolled back", "path", cfg.DB.Path, "steps", steps)
		return printVersion()
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return printVersion()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func printVersion() error {
	version, dirty, err := storage.MigrationVersion(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	if outputFormat == jsonOutputFormat {
		return outputJSON(map[string]any{
			"path":    cfg.DB.Path,
			"version": version,
			"dirty":   dirty,
		})
	}

	t := createStyledTable("Database", "Version", "Dirty")
	t.Row(cfg.DB.Path, strconv.FormatUint(uint64(version), 10), strconv.FormatBool(dirty))
	fmt.Println(t)
	return nil
}
