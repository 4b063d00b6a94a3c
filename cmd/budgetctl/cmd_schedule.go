package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/core"
)

var (
	periodsCount int
	periodsDate  string

	forecastLast  string
	forecastCount int
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List the pay periods shown on the budget page",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		now := time.Now()
		on, err := parseDateFlag("date", periodsDate, core.DateOf(now))
		if err != nil {
			return err
		}
		count := periodsCount
		if count <= 0 {
			count = cfg.Budget.Periods
		}

		start := core.CurrentPeriodStart(cfg.PayAnchorDate(now), on)
		periods := core.BiweeklyPeriods(start, count)
		return printPeriods(periods)
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show the next bi-weekly paydays",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		now := time.Now()
		last, err := parseDateFlag("last", forecastLast, cfg.PayAnchorDate(now))
		if err != nil {
			return err
		}

		paydays := core.SalaryForecast(last, now, forecastCount)

		if outputFormat == jsonOutputFormat {
			return outputJSON(map[string]any{
				"based_on": last,
				"paydays":  paydays,
			})
		}
		t := createStyledTable("#", "Payday", "Weekday", "In days")
		from := core.DateOf(now)
		for i, d := range paydays {
			t.Row(strconv.Itoa(i+1), d.String(), d.Weekday().String(), strconv.Itoa(from.DaysUntil(d)))
		}
		fmt.Println(t)
		return nil
	},
}

func init() {
	periodsCmd.Flags().IntVar(&periodsCount, "count", 0, "number of periods (default budget.periods)")
	periodsCmd.Flags().StringVar(&periodsDate, "date", "", "date inside the newest period (YYYY-MM-DD, default today)")

	forecastCmd.Flags().StringVar(&forecastLast, "last", "", "last known payday (default budget.payanchor)")
	forecastCmd.Flags().IntVar(&forecastCount, "count", core.ForecastPaydays, "number of paydays")
}

func printPeriods(periods []core.Period) error {
	if outputFormat == jsonOutputFormat {
		return outputJSON(periods)
	}
	t := createStyledTable("ID", "Label", "Start", "End", "Days")
	for _, p := range periods {
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Label(),
			p.StartDate.String(),
			p.EndDate.String(),
			strconv.Itoa(p.StartDate.DaysUntil(p.EndDate)+1),
		)
	}
	fmt.Println(t)
	return nil
}
