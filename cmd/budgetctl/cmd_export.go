package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/worker"
)

var (
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Backfill the ledger export for a date range",
	Long: `Exports every expense and paycheck dated between --from and --to to the
configured Google Sheet. Without a spreadsheet id the rows are only counted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)

		to, err := parseDateFlag("to", exportTo, today())
		if err != nil {
			return err
		}
		from, err := parseDateFlag("from", exportFrom, to.AddDays(-core.PayPeriodDays*cfg.Budget.Periods))
		if err != nil {
			return err
		}
		if to.Before(from) {
			return fmt.Errorf("--to %s is before --from %s", to, from)
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		exporter, err := cli.NewExporter(ctx, cfg, logger)
		if err != nil {
			return err
		}

		exported, err := worker.NewExportWorker(s.backend.Store, exporter, logger).ExportRange(ctx, from, to)
		if err != nil {
			return fmt.Errorf("export %s..%s after %d rows: %w", from, to, exported, err)
		}

		if outputFormat == jsonOutputFormat {
			return outputJSON(map[string]any{
				"from":     from,
				"to":       to,
				"exported": exported,
				"dry_run":  !cfg.ExportEnabled(),
			})
		}
		t := createStyledTable("From", "To", "Exported", "Dry run")
		t.Row(from.String(), to.String(), strconv.Itoa(exported), strconv.FormatBool(!cfg.ExportEnabled()))
		fmt.Println(t)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first date (YYYY-MM-DD, default the start of the visible periods)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last date (YYYY-MM-DD, default today)")
}
