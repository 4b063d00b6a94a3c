package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPeriods() []Period {
	return []Period{
		{ID: 1, Date: NewDate(2024, 1, 1), StartDate: NewDate(2024, 1, 1), EndDate: NewDate(2024, 1, 15)},
		{ID: 2, Date: NewDate(2024, 1, 16), StartDate: NewDate(2024, 1, 16), EndDate: NewDate(2024, 1, 31)},
	}
}

func expense(id int64, date Date, category, description string, cents int64, paid bool) Expense {
	return Expense{ID: id, Date: date, Category: category, Description: description, Amount: Money{Cents: cents}, Paid: paid}
}

func TestAggregate_SingleExpenseScenario(t *testing.T) {
	periods := []Period{{ID: 1, StartDate: NewDate(2024, 1, 1), EndDate: NewDate(2024, 1, 15)}}
	expenses := []Expense{expense(1, NewDate(2024, 1, 5), "Food", "", 2000, false)}

	agg := Aggregate(periods, expenses)

	assert.Equal(t, int64(2000), agg.CategoryTotals["food"].Cents)
	assert.Equal(t, int64(2000), agg.PeriodTotals[1].Cents)
	assert.Equal(t, int64(2000), agg.GrandTotal.Cents)

	row, ok := agg.Row(AggregationKey{Category: "food", Description: NoDescriptionLabel})
	require.True(t, ok)
	assert.Equal(t, int64(2000), row.Unpaid.Cents)
	assert.Equal(t, int64(0), row.Paid.Cents)
	assert.Equal(t, []string{"food"}, agg.Categories)
}

func TestAggregate_GroupsByCaseFoldedCategory(t *testing.T) {
	expenses := []Expense{
		expense(1, NewDate(2024, 1, 2), "Food", "Groceries", 1000, false),
		expense(2, NewDate(2024, 1, 20), "food ", "Groceries", 500, true),
		expense(3, NewDate(2024, 1, 3), "", "", 100, false),
	}

	agg := Aggregate(twoPeriods(), expenses)

	require.Len(t, agg.Rows, 2)
	row := agg.Rows[0]
	assert.Equal(t, AggregationKey{Category: "food", Description: "Groceries"}, row.Key)
	assert.Equal(t, int64(1500), row.Total.Cents)
	assert.Equal(t, int64(500), row.Paid.Cents)
	assert.Equal(t, int64(1000), row.Unpaid.Cents)
	assert.Equal(t, int64(1000), row.PeriodAmount(1).Cents)
	assert.Equal(t, int64(500), row.PeriodAmount(2).Cents)
	assert.Equal(t, int64(1), row.Primary().ID)

	assert.Equal(t, AggregationKey{Category: UncategorizedLabel, Description: NoDescriptionLabel}, agg.Rows[1].Key)
	assert.Equal(t, []string{"food", UncategorizedLabel}, agg.Categories)
}

func TestAggregate_ExpenseOutsidePeriods(t *testing.T) {
	expenses := []Expense{
		expense(1, NewDate(2024, 1, 5), "Rent", "", 1000, false),
		expense(2, NewDate(2024, 3, 1), "Rent", "", 700, false),
		expense(3, Date{}, "Rent", "", 300, false),
	}

	agg := Aggregate(twoPeriods(), expenses)

	assert.Equal(t, int64(2000), agg.CategoryTotals["rent"].Cents)
	assert.Equal(t, int64(2000), agg.GrandTotal.Cents)
	assert.Equal(t, int64(1000), agg.PeriodTotals[1].Cents)
	assert.Equal(t, int64(0), agg.PeriodTotals[2].Cents)
}

func TestAggregate_NonNumericAmountContributesZero(t *testing.T) {
	snap := DecodeSnapshot(
		[]byte(`[{"id":1,"start_date":"2024-01-01","end_date":"2024-01-15"}]`),
		[]byte(`[{"id":1,"date":"2024-01-05","category":"Food","amount":"abc"},{"id":2,"date":"2024-01-06","category":"Food","amount":"5"}]`),
	)

	agg := Aggregate(snap.Periods, snap.Expenses)

	assert.Equal(t, int64(500), agg.GrandTotal.Cents)
	assert.Equal(t, int64(500), agg.CategoryTotals["food"].Cents)
	assert.Equal(t, int64(500), agg.PeriodTotals[1].Cents)
	assert.Equal(t, 2, agg.ExpenseCount)
}

func TestAggregate_FirstMatchingPeriodWins(t *testing.T) {
	periods := []Period{
		{ID: 1, StartDate: NewDate(2024, 1, 1), EndDate: NewDate(2024, 1, 20)},
		{ID: 2, StartDate: NewDate(2024, 1, 10), EndDate: NewDate(2024, 1, 31)},
	}
	agg := Aggregate(periods, []Expense{expense(1, NewDate(2024, 1, 15), "x", "", 100, false)})

	assert.Equal(t, int64(100), agg.PeriodTotals[1].Cents)
	assert.Equal(t, int64(0), agg.PeriodTotals[2].Cents)
}

func TestAggregate_TotalsAreConsistent(t *testing.T) {
	periods := twoPeriods()
	var expenses []Expense
	categories := []string{"Food", "Rent", "Travel"}
	for i := 0; i < 30; i++ {
		day := i%31 + 1
		expenses = append(expenses, expense(int64(i+1), NewDate(2024, 1, day), categories[i%3], "", int64(100*(i+1)), i%2 == 0))
	}

	agg := Aggregate(periods, expenses)

	var categorySum, periodSum int64
	for _, m := range agg.CategoryTotals {
		categorySum += m.Cents
	}
	for _, m := range agg.PeriodTotals {
		periodSum += m.Cents
	}
	assert.Equal(t, agg.GrandTotal.Cents, categorySum)
	assert.Equal(t, agg.GrandTotal.Cents, periodSum)

	for _, row := range agg.Rows {
		var byPeriod int64
		for _, m := range row.ByPeriod {
			byPeriod += m.Cents
		}
		assert.Equal(t, row.Total.Cents, byPeriod, row.Key.String())
		assert.Equal(t, row.Total.Cents, row.Paid.Cents+row.Unpaid.Cents, row.Key.String())
	}
}

func TestAggregate_TogglePaidMovesAmount(t *testing.T) {
	expenses := []Expense{
		expense(1, NewDate(2024, 1, 5), "Food", "Lunch", 1200, false),
		expense(2, NewDate(2024, 1, 6), "Food", "Lunch", 800, false),
	}
	key := AggregationKey{Category: "food", Description: "Lunch"}

	before, _ := Aggregate(twoPeriods(), expenses).Row(key)
	expenses[0].Paid = true
	after, _ := Aggregate(twoPeriods(), expenses).Row(key)

	assert.Equal(t, before.Unpaid.Cents-1200, after.Unpaid.Cents)
	assert.Equal(t, before.Paid.Cents+1200, after.Paid.Cents)
	assert.Equal(t, before.Total, after.Total)
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil, nil)
	assert.Empty(t, agg.Rows)
	assert.Equal(t, int64(0), agg.GrandTotal.Cents)
	assert.Empty(t, agg.Categories)
}
