package core

import (
	"sort"
	"strings"
)

const (
	// UncategorizedLabel replaces a missing category.
	UncategorizedLabel = "uncategorized"
	// NoDescriptionLabel replaces a missing description.
	NoDescriptionLabel = "-"
)

// AggregationKey groups expense rows for display.
type AggregationKey struct {
	Category    string
	Description string
}

// String returns the "category|description" form used in URLs and element ids.
func (k AggregationKey) String() string {
	return k.Category + "|" + k.Description
}

// KeyTotals are the running totals of one aggregation key.
type KeyTotals struct {
	Key      AggregationKey
	ByPeriod map[int64]Money
	Total    Money
	Paid     Money
	Unpaid   Money
	Expenses []Expense
}

// PeriodAmount returns the subtotal for a period, zero when absent.
func (k *KeyTotals) PeriodAmount(periodID int64) Money {
	return k.ByPeriod[periodID]
}

// Primary is the expense edit and toggle affordances act on.
func (k *KeyTotals) Primary() Expense {
	if len(k.Expenses) == 0 {
		return Expense{}
	}
	return k.Expenses[0]
}

// Aggregation is the result of grouping expenses by key, category and period.
type Aggregation struct {
	Periods        []Period
	Rows           []*KeyTotals
	CategoryTotals map[string]Money
	PeriodTotals   map[int64]Money
	GrandTotal     Money
	Categories     []string
	ExpenseCount   int

	index map[AggregationKey]*KeyTotals
}

// Row looks up the totals for a key.
func (a Aggregation) Row(k AggregationKey) (*KeyTotals, bool) {
	r, ok := a.index[k]
	return r, ok
}

// NormalizeKey applies the grouping rules: category is trimmed and
// lower-cased, blanks fall back to the sentinel labels.
func NormalizeKey(category, description string) AggregationKey {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		c = UncategorizedLabel
	}
	d := strings.TrimSpace(description)
	if d == "" {
		d = NoDescriptionLabel
	}
	return AggregationKey{Category: c, Description: d}
}

// OwningPeriod returns the first period whose range contains d.
func OwningPeriod(periods []Period, d Date) (Period, bool) {
	for _, p := range periods {
		if p.Contains(d) {
			return p, true
		}
	}
	return Period{}, false
}

// Aggregate groups expenses by (category, description) and by period.
// Expenses outside every period still count toward key, category and grand
// totals but not toward any period subtotal.
func Aggregate(periods []Period, expenses []Expense) Aggregation {
	agg := Aggregation{
		Periods:        periods,
		CategoryTotals: make(map[string]Money),
		PeriodTotals:   make(map[int64]Money, len(periods)),
		ExpenseCount:   len(expenses),
		index:          make(map[AggregationKey]*KeyTotals),
	}
	for _, p := range periods {
		agg.PeriodTotals[p.ID] = Money{}
	}

	for _, e := range expenses {
		key := NormalizeKey(e.Category, e.Description)
		row, ok := agg.index[key]
		if !ok {
			row = &KeyTotals{Key: key, ByPeriod: make(map[int64]Money)}
			agg.index[key] = row
			agg.Rows = append(agg.Rows, row)
		}
		row.Expenses = append(row.Expenses, e)
		row.Total = row.Total.Add(e.Amount)
		if e.Paid {
			row.Paid = row.Paid.Add(e.Amount)
		} else {
			row.Unpaid = row.Unpaid.Add(e.Amount)
		}

		agg.CategoryTotals[key.Category] = agg.CategoryTotals[key.Category].Add(e.Amount)
		agg.GrandTotal = agg.GrandTotal.Add(e.Amount)

		if p, ok := OwningPeriod(periods, e.Date); ok {
			row.ByPeriod[p.ID] = row.ByPeriod[p.ID].Add(e.Amount)
			agg.PeriodTotals[p.ID] = agg.PeriodTotals[p.ID].Add(e.Amount)
		}
	}

	agg.Categories = make([]string, 0, len(agg.CategoryTotals))
	for c := range agg.CategoryTotals {
		agg.Categories = append(agg.Categories, c)
	}
	sort.Strings(agg.Categories)
	return agg
}
