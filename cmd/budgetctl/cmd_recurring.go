package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/core"
	"budget/internal/services"
)

var (
	materializeToday   string
	materializeHorizon int

	paycheckFirst string
	paycheckStart string
	paycheckEnd   string
	paycheckEvery int
	paycheckGross string
	paycheckNet   string
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Create the missing occurrences of recurring expenses",
	Long: `Walks every recurring expense and stores each occurrence between its
start date and the horizon that is not recorded yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)
		from, err := parseDateFlag("today", materializeToday, today())
		if err != nil {
			return err
		}
		horizon := materializeHorizon
		if horizon <= 0 {
			horizon = cfg.Budget.Horizon
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		recurring := services.NewRecurringService(s.backend.Store, s.ledger, logger)
		created, err := recurring.MaterializeAll(ctx, from, horizon)
		if err != nil {
			return fmt.Errorf("materialize recurring expenses: %w", err)
		}

		if outputFormat == jsonOutputFormat {
			return outputJSON(map[string]any{
				"today":        from,
				"horizon_days": horizon,
				"created":      created,
			})
		}
		t := createStyledTable("Today", "Horizon", "Created")
		t.Row(from.String(), from.AddDays(horizon).String(), strconv.Itoa(created))
		fmt.Println(t)
		return nil
	},
}

var paychecksCmd = &cobra.Command{
	Use:   "paychecks",
	Short: "Generate regular paychecks on a fixed schedule",
	Long: `Stores a Regular paycheck for every scheduled payday between --start and
--end. Paydays that already have a Regular paycheck are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)

		first, err := parseDateFlag("first", paycheckFirst, core.Date{})
		if err != nil {
			return err
		}
		if first.IsZero() {
			first = cfg.PayAnchorDate(time.Now())
		}
		start, err := parseDateFlag("start", paycheckStart, first)
		if err != nil {
			return err
		}
		end, err := parseDateFlag("end", paycheckEnd, first.AddDays(365))
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("--end %s is before --start %s", end, start)
		}

		grossCents, err := core.ParseDecimalToCents(paycheckGross)
		if err != nil {
			return fmt.Errorf("invalid --gross %q: %w", paycheckGross, err)
		}
		gross := core.Money{Cents: grossCents}
		net := core.PaycheckNet(gross, gross)
		if paycheckNet != "" {
			netCents, err := core.ParseDecimalToCents(paycheckNet)
			if err != nil {
				return fmt.Errorf("invalid --net %q: %w", paycheckNet, err)
			}
			net = core.Money{Cents: netCents}
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		recurring := services.NewRecurringService(s.backend.Store, s.ledger, logger)
		created, err := recurring.GeneratePaychecks(ctx, services.PaycheckPlan{
			First: first,
			Start: start,
			End:   end,
			Every: paycheckEvery,
			Gross: gross,
			Net:   net,
		})
		if err != nil {
			return fmt.Errorf("generate paychecks: %w", err)
		}

		if outputFormat == jsonOutputFormat {
			return outputJSON(map[string]any{
				"start":   start,
				"end":     end,
				"gross":   gross.Float(),
				"net":     net.Float(),
				"created": created,
			})
		}
		t := createStyledTable("Start", "End", "Gross", "Net", "Created")
		t.Row(start.String(), end.String(), gross.String(), net.String(), strconv.Itoa(created))
		fmt.Println(t)
		return nil
	},
}

func init() {
	materializeCmd.Flags().StringVar(&materializeToday, "today", "", "reference date (YYYY-MM-DD, default today)")
	materializeCmd.Flags().IntVar(&materializeHorizon, "horizon", 0, "days past today to materialize (default from config)")

	paychecksCmd.Flags().StringVar(&paycheckFirst, "first", "", "a known payday anchoring the schedule (default budget.payanchor)")
	paychecksCmd.Flags().StringVar(&paycheckStart, "start", "", "first date to fill (default --first)")
	paychecksCmd.Flags().StringVar(&paycheckEnd, "end", "", "last date to fill (default one year after --first)")
	paychecksCmd.Flags().IntVar(&paycheckEvery, "every", core.PayPeriodDays, "days between paychecks")
	paychecksCmd.Flags().StringVar(&paycheckGross, "gross", "", "gross amount of each paycheck")
	paychecksCmd.Flags().StringVar(&paycheckNet, "net", "", "net amount (default gross minus withholding)")
	_ = paychecksCmd.MarkFlagRequired("gross")
}
