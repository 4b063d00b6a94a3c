package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// budgetView is the cached, request-independent part of the budget page.
// The starting balance and the table controls are applied per request.
type budgetView struct {
	Periods     []core.Period
	Aggregation core.Aggregation
	Income      map[int64]core.IncomeBreakdown
	// Projected counts the recurring occurrences not yet materialized.
	Projected int
	Paydays   []core.Date
}

type budgetPage struct {
	pageMeta
	Table           core.Table
	Summary         []core.PeriodSummary
	Widths          core.ColumnWidths
	StartingBalance core.Money
	Paydays         []core.Date
	Projected       int
}

// SortURL links a column header to the toggled sort order.
func (p budgetPage) SortURL(field string) string {
	return "/budget?" + encodeTableQuery(p.Table.Query.Toggled(field)).Encode()
}

// ReturnURL is the current table view, where plain form posts land after
// they are handled.
func (p budgetPage) ReturnURL() string {
	if q := encodeTableQuery(p.Table.Query).Encode(); q != "" {
		return "/budget?" + q
	}
	return "/budget"
}

// SortIndicator marks the active sort column.
func (p budgetPage) SortIndicator(field string) string {
	q := p.Table.Query
	if q.SortBy != field {
		return ""
	}
	if q.SortDir == core.SortDesc {
		return "▼"
	}
	return "▲"
}

// Width returns the inline style width of a resizable column.
func (p budgetPage) Width(column string) string {
	if px := p.Widths.Width(column); px > 0 {
		return strconv.Itoa(px) + "px"
	}
	return ""
}

// ColSpan covers every column of the expense table.
func (p budgetPage) ColSpan() int {
	return len(p.Table.Periods) + 5
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	view, err := s.loadBudgetView(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load budget data",
			log.NewFields().WithOperation(log.OpAggregate).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "We couldn't load your budget data. Please try again.")
		return
	}

	starting := s.startingBalance(w, r)
	agg := view.Aggregation
	page := budgetPage{
		pageMeta:        s.meta("Budget Tracker", "budget"),
		Table:           core.BuildTable(&agg, tableQuery(r.URL.Query())),
		Summary:         core.BuildBudgetSummary(view.Periods, view.Income, agg, starting),
		Widths:          core.DecodeColumnWidths(preferenceCookie(r, core.ColumnWidthsKey)),
		StartingBalance: starting,
		Paydays:         view.Paydays,
		Projected:       view.Projected,
	}
	page.Flash = sanitizeInput(r.URL.Query().Get("flash"))

	s.render(w, r, http.StatusOK, "budget.html", page, false)
}

// startingBalance reads the starting_balance parameter, falling back to the
// cookie. A submitted value is written back to the cookie.
func (s *Server) startingBalance(w http.ResponseWriter, r *http.Request) core.Money {
	if v, ok := r.URL.Query()["starting_balance"]; ok {
		m := core.ParseStartingBalance(strings.Join(v, ""))
		setPreferenceCookie(w, core.StartingBalanceKey, m.Decimal())
		return m
	}
	return core.ParseStartingBalance(preferenceCookie(r, core.StartingBalanceKey))
}

// loadBudgetView returns the cached view for the current period layout.
func (s *Server) loadBudgetView(ctx context.Context) (budgetView, error) {
	now := s.today()
	anchor := core.CurrentPeriodStart(s.cfg.PayAnchorDate(now), core.DateOf(now))
	key := fmt.Sprintf("%s/%d", anchor, s.cfg.Budget.Periods)
	// The load is shared by every request waiting on key, so it must not
	// die with the first caller's connection. buildBudgetView bounds it.
	loadCtx := context.WithoutCancel(ctx)
	return s.views.GetOrLoad(key, func() (budgetView, error) {
		return s.buildBudgetView(loadCtx, anchor)
	})
}

// buildBudgetView reads expenses, paychecks and recurring parents
// concurrently, then aggregates them over the bi-weekly periods ending
// with the one that starts at anchor.
func (s *Server) buildBudgetView(ctx context.Context, anchor core.Date) (budgetView, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	periods := core.BiweeklyPeriods(anchor, s.cfg.Budget.Periods)
	from, to := core.PeriodRange(periods)
	margin := core.PayPeriodDays / 2

	var (
		expenses  []core.Expense
		paychecks []core.Paycheck
		parents   []core.Expense
		last      core.Paycheck
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if expenses, err = s.store.ListExpenses(gctx, from, to); err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if paychecks, err = s.store.ListPaychecks(gctx, from.AddDays(-margin), to.AddDays(margin)); err != nil {
			return fmt.Errorf("list paychecks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if parents, err = s.store.RecurringExpenses(gctx); err != nil {
			return fmt.Errorf("list recurring expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		last, err = s.store.LatestPaycheck(gctx, core.PayRegular)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("latest paycheck: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return budgetView{}, err
	}

	projected := projectRecurring(parents, expenses, from, to)
	all := make([]core.Expense, 0, len(expenses)+len(projected))
	all = append(all, expenses...)
	all = append(all, projected...)

	lastPayday := last.Date
	if lastPayday.IsZero() {
		lastPayday = s.cfg.PayAnchorDate(s.today())
	}

	return budgetView{
		Periods:     periods,
		Aggregation: core.Aggregate(periods, all),
		Income:      core.BucketIncome(periods, paychecks),
		Projected:   len(projected),
		Paydays:     core.SalaryForecast(lastPayday, s.today(), core.ForecastPaydays),
	}, nil
}

// projectRecurring expands recurring parents over [from, to]. Occurrences
// already present in stored (the parent itself or a materialized child)
// are skipped.
func projectRecurring(parents, stored []core.Expense, from, to core.Date) []core.Expense {
	if len(parents) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		seen[occurrenceKey(e.Date, e.Category, e.Amount, e.Description)] = struct{}{}
	}
	exists := func(d core.Date, category string, amount core.Money, description string) bool {
		_, ok := seen[occurrenceKey(d, category, amount, description)]
		return ok
	}

	var out []core.Expense
	for _, p := range parents {
		occ, err := core.Occurrences(p, from, to, exists)
		if err != nil {
			continue
		}
		out = append(out, occ...)
	}
	return out
}

func occurrenceKey(d core.Date, category string, amount core.Money, description string) string {
	return fmt.Sprintf("%s|%s|%d|%s", d, strings.ToLower(strings.TrimSpace(category)), amount.Cents, strings.TrimSpace(description))
}

// handleSaveColumns stores column widths in the preference cookie. JSON
// bodies carry {"column": px, ...}; form posts carry column and width.
func (s *Server) handleSaveColumns(w http.ResponseWriter, r *http.Request) {
	widths := core.DecodeColumnWidths(preferenceCookie(r, core.ColumnWidthsKey))

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		JSONError(http.StatusBadRequest, msgNoData).Write(w)
		return
	}

	if p.IsJSON() {
		var submitted map[string]int
		if err := json.Unmarshal(p.Raw(), &submitted); err != nil {
			JSONError(http.StatusBadRequest, "Column widths must be whole pixel values").Write(w)
			return
		}
		widths.Merge(submitted)
		setPreferenceCookie(w, core.ColumnWidthsKey, widths.Encode())
		NewResponse().JSON(map[string]any{"success": true, "widths": widths}).Write(w)
		return
	}

	px, err := strconv.Atoi(p.Get("width"))
	if err != nil || p.Get("column") == "" {
		BadRequestError("column and width are required").Write(w)
		return
	}
	widths.Set(p.Get("column"), px)
	setPreferenceCookie(w, core.ColumnWidthsKey, widths.Encode())
	Redirect("/budget").Write(w)
}

func (s *Server) handleResetColumns(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, core.ColumnWidthsKey)
	if wantsJSON(r) {
		NewResponse().JSON(map[string]any{"success": true, "widths": core.DefaultColumnWidths()}).Write(w)
		return
	}
	Redirect("/budget").Write(w)
}
