package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiweeklyPeriods(t *testing.T) {
	periods := BiweeklyPeriods(NewDate(2024, 1, 29), 3)

	require.Len(t, periods, 3)
	wantStarts := []Date{NewDate(2024, 1, 1), NewDate(2024, 1, 15), NewDate(2024, 1, 29)}
	for i, p := range periods {
		assert.Equal(t, int64(i+1), p.ID)
		assert.True(t, p.StartDate.Equal(wantStarts[i]), "period %d start %s", i, p.StartDate)
		assert.True(t, p.Date.Equal(p.StartDate))
		assert.Equal(t, PayPeriodDays-1, p.StartDate.DaysUntil(p.EndDate))
	}

	from, to := PeriodRange(periods)
	assert.True(t, from.Equal(NewDate(2024, 1, 1)))
	assert.True(t, to.Equal(NewDate(2024, 2, 11)))

	assert.Len(t, BiweeklyPeriods(NewDate(2024, 1, 29), 0), DefaultPeriodCount)
}

func TestClosestPeriod(t *testing.T) {
	periods := BiweeklyPeriods(NewDate(2024, 1, 15), 2)

	p, ok := ClosestPeriod(periods, NewDate(2024, 1, 8))
	require.True(t, ok)
	assert.Equal(t, int64(1), p.ID, "ties go to the earlier period")

	p, _ = ClosestPeriod(periods, NewDate(2024, 3, 1))
	assert.Equal(t, int64(2), p.ID)

	_, ok = ClosestPeriod(nil, NewDate(2024, 1, 8))
	assert.False(t, ok)
}

func TestPaycheckDates(t *testing.T) {
	got := PaycheckDates(NewDate(2024, 1, 1), NewDate(2024, 2, 29), NewDate(2024, 1, 19), 14)

	want := []Date{
		NewDate(2024, 1, 5),
		NewDate(2024, 1, 19),
		NewDate(2024, 2, 2),
		NewDate(2024, 2, 16),
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "date %d = %s", i, got[i])
	}
}

func TestSalaryForecast(t *testing.T) {
	// 2024-01-03 is a Wednesday; the schedule snaps to Friday 2024-01-05.
	now := time.Date(2024, 1, 19, 15, 0, 0, 0, time.UTC)
	got := SalaryForecast(NewDate(2024, 1, 3), now, 0)

	require.Len(t, got, ForecastPaydays)
	want := []Date{NewDate(2024, 2, 2), NewDate(2024, 2, 16), NewDate(2024, 3, 1)}
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "payday %d = %s", i, got[i])
		assert.Equal(t, time.Friday, got[i].Weekday())
	}
}

func TestCurrentPeriodStart(t *testing.T) {
	anchor := NewDate(2024, 1, 5)
	tests := []struct {
		d, want Date
	}{
		{NewDate(2024, 1, 5), NewDate(2024, 1, 5)},
		{NewDate(2024, 1, 18), NewDate(2024, 1, 5)},
		{NewDate(2024, 1, 19), NewDate(2024, 1, 19)},
		{NewDate(2024, 1, 4), NewDate(2023, 12, 22)},
		{NewDate(2023, 12, 22), NewDate(2023, 12, 22)},
	}
	for _, tt := range tests {
		got := CurrentPeriodStart(anchor, tt.d)
		assert.True(t, got.Equal(tt.want), "CurrentPeriodStart(%s) = %s, want %s", tt.d, got, tt.want)
	}
}
