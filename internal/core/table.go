package core

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TableState distinguishes the empty renderings of the expense table.
type TableState int

const (
	StateLoading TableState = iota
	StateNoPeriods
	StateNoExpenses
	StateNoMatches
	StateReady
)

func (s TableState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNoPeriods:
		return "no_periods"
	case StateNoExpenses:
		return "no_expenses"
	case StateNoMatches:
		return "no_matches"
	default:
		return "ready"
	}
}

const (
	SortByCategory    = "category"
	SortByDescription = "description"
	SortByTotal       = "total"

	SortAsc  = "asc"
	SortDesc = "desc"

	// CategoryAll disables the category filter.
	CategoryAll = "all"
)

// TableQuery holds the user's search, filter and sort controls.
type TableQuery struct {
	Search   string
	Category string
	SortBy   string
	SortDir  string
}

// Normalize fills defaults and drops unknown sort values.
func (q TableQuery) Normalize() TableQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "" {
		q.Category = CategoryAll
	}
	switch q.SortBy {
	case SortByCategory, SortByDescription, SortByTotal:
	default:
		q.SortBy = SortByCategory
	}
	if q.SortDir != SortDesc {
		q.SortDir = SortAsc
	}
	return q
}

// Toggled returns the query sorted by field, flipping direction when the
// field is already the active one.
func (q TableQuery) Toggled(field string) TableQuery {
	q = q.Normalize()
	if q.SortBy == field {
		if q.SortDir == SortAsc {
			q.SortDir = SortDesc
		} else {
			q.SortDir = SortAsc
		}
		return q
	}
	q.SortBy = field
	q.SortDir = SortAsc
	return q
}

// Matches applies the search and category filters to a row.
func (q TableQuery) Matches(k AggregationKey) bool {
	if q.Category != "" && q.Category != CategoryAll && k.Category != q.Category {
		return false
	}
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(k.Category), term) ||
		strings.Contains(strings.ToLower(k.Description), term)
}

// Table is the filtered, sorted view of an aggregation.
type Table struct {
	State      TableState
	Query      TableQuery
	Periods    []Period
	Rows       []*KeyTotals
	Categories []string
	// Footer totals always reflect the unfiltered aggregation.
	PeriodTotals map[int64]Money
	GrandTotal   Money
	UnpaidTotal  Money
}

// BuildTable filters and sorts agg. A nil aggregation renders as loading.
func BuildTable(agg *Aggregation, q TableQuery) Table {
	q = q.Normalize()
	t := Table{State: StateLoading, Query: q}
	if agg == nil {
		return t
	}

	t.Periods = agg.Periods
	t.Categories = agg.Categories
	t.PeriodTotals = agg.PeriodTotals
	t.GrandTotal = agg.GrandTotal
	for _, r := range agg.Rows {
		t.UnpaidTotal = t.UnpaidTotal.Add(r.Unpaid)
	}

	switch {
	case len(agg.Periods) == 0:
		t.State = StateNoPeriods
		return t
	case agg.ExpenseCount == 0:
		t.State = StateNoExpenses
		return t
	}

	for _, r := range agg.Rows {
		if q.Matches(r.Key) {
			t.Rows = append(t.Rows, r)
		}
	}
	if len(t.Rows) == 0 {
		t.State = StateNoMatches
		return t
	}

	sortRows(t.Rows, q)
	t.State = StateReady
	return t
}

func sortRows(rows []*KeyTotals, q TableQuery) {
	col := collate.New(language.English, collate.IgnoreCase)
	less := func(a, b *KeyTotals) int {
		switch q.SortBy {
		case SortByDescription:
			if c := col.CompareString(a.Key.Description, b.Key.Description); c != 0 {
				return c
			}
		case SortByTotal:
			if a.Total.Cents != b.Total.Cents {
				if a.Total.Cents < b.Total.Cents {
					return -1
				}
				return 1
			}
		}
		if c := col.CompareString(a.Key.Category, b.Key.Category); c != 0 {
			return c
		}
		return col.CompareString(a.Key.Description, b.Key.Description)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := less(rows[i], rows[j])
		if q.SortDir == SortDesc {
			return c > 0
		}
		return c < 0
	})
}
