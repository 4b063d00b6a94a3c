package core

import "time"

const (
	// PayPeriodDays is the length of a bi-weekly pay period.
	PayPeriodDays = 14
	// DefaultPeriodCount is how many periods the budget page shows.
	DefaultPeriodCount = 6
	// ForecastPaydays is how many upcoming paydays the forecast lists.
	ForecastPaydays = 3
)

// BiweeklyPeriods returns count consecutive 14-day periods, oldest first,
// the last one starting at anchor. IDs run from 1.
func BiweeklyPeriods(anchor Date, count int) []Period {
	if count <= 0 {
		count = DefaultPeriodCount
	}
	periods := make([]Period, count)
	for i := 0; i < count; i++ {
		start := anchor.AddDays(-PayPeriodDays * (count - 1 - i))
		periods[i] = Period{
			ID:        int64(i + 1),
			Date:      start,
			StartDate: start,
			EndDate:   start.AddDays(PayPeriodDays - 1),
		}
	}
	return periods
}

// PeriodRange returns the first start and last end date of periods.
func PeriodRange(periods []Period) (from, to Date) {
	for i, p := range periods {
		if i == 0 || p.StartDate.Before(from) {
			from = p.StartDate
		}
		if i == 0 || p.EndDate.After(to) {
			to = p.EndDate
		}
	}
	return from, to
}

// ClosestPeriod returns the period whose Date is nearest to d. Ties go to
// the earlier period in the slice.
func ClosestPeriod(periods []Period, d Date) (Period, bool) {
	var (
		best  Period
		found bool
		min   int
	)
	for _, p := range periods {
		diff := p.Date.DaysUntil(d)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < min {
			best, min, found = p, diff, true
		}
	}
	return best, found
}

// PaycheckDates lists the dates of a fixed schedule anchored on first that
// fall inside [start, end], stepping backward and forward from the anchor.
func PaycheckDates(start, end, first Date, every int) []Date {
	if every <= 0 {
		every = PayPeriodDays
	}
	var before []Date
	for d := first.AddDays(-every); !d.Before(start); d = d.AddDays(-every) {
		before = append(before, d)
	}
	dates := make([]Date, 0, len(before))
	for i := len(before) - 1; i >= 0; i-- {
		dates = append(dates, before[i])
	}
	for d := first; !d.After(end); d = d.AddDays(every) {
		if !d.Before(start) {
			dates = append(dates, d)
		}
	}
	return dates
}

// SalaryForecast returns the next n bi-weekly paydays strictly after now.
// The schedule is anchored on lastPayday, moved forward to a Friday.
func SalaryForecast(lastPayday Date, now time.Time, n int) []Date {
	if n <= 0 {
		n = ForecastPaydays
	}
	anchor := lastPayday
	for anchor.Weekday() != time.Friday {
		anchor = anchor.AddDays(1)
	}
	today := DateOf(now)
	for !anchor.After(today) {
		anchor = anchor.AddDays(PayPeriodDays)
	}
	out := make([]Date, n)
	for i := range out {
		out[i] = anchor.AddDays(PayPeriodDays * i)
	}
	return out
}

// CurrentPeriodStart returns the start of the 14-day period containing d,
// with periods aligned on payAnchor.
func CurrentPeriodStart(payAnchor, d Date) Date {
	diff := payAnchor.DaysUntil(d)
	k := diff / PayPeriodDays
	if diff < 0 && diff%PayPeriodDays != 0 {
		k--
	}
	return payAnchor.AddDays(k * PayPeriodDays)
}
