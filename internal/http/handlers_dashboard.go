package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

const recentCount = 5

type dashboardPage struct {
	pageMeta
	Paychecks     []core.Paycheck
	Expenses      []core.Expense
	TotalIncome   core.Money
	TotalExpenses core.Money
	Net           core.Money
	Categories    []categoryTotal
}

type categoryTotal struct {
	Category string
	Total    core.Money
}

// incomeSeries is the paycheck chart: one point per paycheck date.
type incomeSeries struct {
	Labels []string  `json:"labels"`
	Gross  []float64 `json:"gross"`
	Net    []float64 `json:"net"`
}

// expenseSeries is the category chart.
type expenseSeries struct {
	Labels  []string  `json:"labels"`
	Amounts []float64 `json:"amounts"`
}

type chartData struct {
	From     string        `json:"from,omitempty"`
	To       string        `json:"to,omitempty"`
	Income   incomeSeries  `json:"income"`
	Expenses expenseSeries `json:"expenses"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	var (
		recentPaychecks []core.Paycheck
		recentExpenses  []core.Expense
		paychecks       []core.Paycheck
		expenses        []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recentPaychecks, err = s.store.RecentPaychecks(gctx, recentCount)
		return err
	})
	g.Go(func() (err error) {
		recentExpenses, err = s.store.RecentExpenses(gctx, recentCount)
		return err
	})
	g.Go(func() (err error) {
		paychecks, err = s.store.ListPaychecks(gctx, core.Date{}, core.Date{})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, core.Date{}, core.Date{})
		return err
	})
	if err := g.Wait(); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load dashboard",
			log.NewFields().WithOperation(log.OpList).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "We couldn't load your dashboard. Please try again.")
		return
	}

	page := dashboardPage{
		pageMeta:  s.meta("Dashboard", "dashboard"),
		Paychecks: recentPaychecks,
		Expenses:  recentExpenses,
	}
	for _, p := range paychecks {
		page.TotalIncome = page.TotalIncome.Add(p.Net)
	}
	for _, e := range expenses {
		page.TotalExpenses = page.TotalExpenses.Add(e.Amount)
	}
	page.Net = page.TotalIncome.Sub(page.TotalExpenses)
	page.Categories = totalsByCategory(expenses)

	s.render(w, r, http.StatusOK, "dashboard.html", page, false)
}

// totalsByCategory groups amounts by normalized category, largest first.
func totalsByCategory(expenses []core.Expense) []categoryTotal {
	sums := make(map[string]core.Money)
	for _, e := range expenses {
		key := core.NormalizeKey(e.Category, e.Description).Category
		sums[key] = sums[key].Add(e.Amount)
	}
	out := make([]categoryTotal, 0, len(sums))
	for c, m := range sums {
		out = append(out, categoryTotal{Category: c, Total: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func buildChartData(paychecks []core.Paycheck, expenses []core.Expense) chartData {
	sort.SliceStable(paychecks, func(i, j int) bool { return paychecks[i].Date.Before(paychecks[j].Date) })

	data := chartData{
		Income:   incomeSeries{Labels: []string{}, Gross: []float64{}, Net: []float64{}},
		Expenses: expenseSeries{Labels: []string{}, Amounts: []float64{}},
	}
	for _, p := range paychecks {
		data.Income.Labels = append(data.Income.Labels, p.Date.String())
		data.Income.Gross = append(data.Income.Gross, p.Gross.Float())
		data.Income.Net = append(data.Income.Net, p.Net.Float())
	}
	for _, c := range totalsByCategory(expenses) {
		data.Expenses.Labels = append(data.Expenses.Labels, c.Category)
		data.Expenses.Amounts = append(data.Expenses.Amounts, c.Total.Float())
	}
	return data
}

// handleAPIDashboardChart returns the chart series for an optional
// from/to window. Without bounds every record is included.
func (s *Server) handleAPIDashboardChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	dr := ParseDateRange(r.URL.Query(), core.Date{}, core.Date{})

	var (
		paychecks []core.Paycheck
		expenses  []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		paychecks, err = s.store.ListPaychecks(gctx, dr.From, dr.To)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, dr.From, dr.To)
		return err
	})
	if err := g.Wait(); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load chart data",
			log.NewFields().WithOperation(log.OpList).WithError(err).ToSlice()...)
		JSONError(http.StatusInternalServerError, "Could not load chart data").Write(w)
		return
	}

	data := buildChartData(paychecks, expenses)
	data.From, data.To = dr.From.String(), dr.To.String()
	NewResponse().JSON(data).Write(w)
}

type budgetDataIncome struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	IncomeType string  `json:"income_type"`
	Amount     float64 `json:"amount"`
	NetAmount  float64 `json:"net_amount"`
}

type budgetDataExpense struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Recurring   bool    `json:"recurring"`
	Frequency   *string `json:"frequency"`
	Paid        bool    `json:"paid"`
}

// handleAPIBudgetData dumps every paycheck and expense.
func (s *Server) handleAPIBudgetData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	var (
		paychecks []core.Paycheck
		expenses  []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		paychecks, err = s.store.ListPaychecks(gctx, core.Date{}, core.Date{})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, core.Date{}, core.Date{})
		return err
	})
	if err := g.Wait(); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load budget data",
			log.NewFields().WithOperation(log.OpList).WithError(err).ToSlice()...)
		JSONError(http.StatusInternalServerError, "Could not load budget data").Write(w)
		return
	}

	income := make([]budgetDataIncome, 0, len(paychecks))
	for _, p := range paychecks {
		income = append(income, budgetDataIncome{
			ID:         p.ID,
			Date:       p.Date.String(),
			IncomeType: string(core.IncomeTypeFor(p.PayType)),
			Amount:     p.Gross.Float(),
			NetAmount:  p.Net.Float(),
		})
	}
	out := make([]budgetDataExpense, 0, len(expenses))
	for _, e := range expenses {
		row := budgetDataExpense{
			ID:          e.ID,
			Date:        e.Date.String(),
			Category:    e.Category,
			Description: e.Description,
			Amount:      e.Amount.Float(),
			Recurring:   e.Recurring,
			Paid:        e.Paid,
		}
		if e.Frequency != "" {
			f := string(e.Frequency)
			row.Frequency = &f
		}
		out = append(out, row)
	}

	NewResponse().JSON(map[string]any{"income": income, "expenses": out}).Write(w)
}

// handleAPISalaryForecast lists the next paydays after the latest regular
// paycheck, or after the configured pay anchor when there is none.
func (s *Server) handleAPISalaryForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.today()

	last := s.cfg.PayAnchorDate(now)
	source := "pay_anchor"
	pc, err := s.store.LatestPaycheck(ctx, core.PayRegular)
	switch {
	case err == nil:
		last, source = pc.Date, "latest_paycheck"
	case !errors.Is(err, ports.ErrNotFound):
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load latest paycheck",
			log.NewFields().WithOperation(log.OpRead).WithError(err).ToSlice()...)
		JSONError(http.StatusInternalServerError, "Could not load the salary forecast").Write(w)
		return
	}

	paydays := core.SalaryForecast(last, now, core.ForecastPaydays)
	dates := make([]string, len(paydays))
	for i, d := range paydays {
		dates[i] = d.String()
	}
	NewResponse().JSON(map[string]any{
		"based_on": last.String(),
		"source":   source,
		"paydays":  dates,
	}).Write(w)
}

// aggregateRequest is the body of POST /api/aggregate. periods and expenses
// are decoded leniently; the table controls are optional.
type aggregateRequest struct {
	Periods  json.RawMessage `json:"periods"`
	Expenses json.RawMessage `json:"expenses"`
	Search   string          `json:"search"`
	Category string          `json:"category"`
	Sort     string          `json:"sort"`
	Dir      string          `json:"dir"`
}

type aggregateRow struct {
	Key         string            `json:"key"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	ByPeriod    map[int64]float64 `json:"by_period"`
	Total       float64           `json:"total"`
	Paid        float64           `json:"paid"`
	Unpaid      float64           `json:"unpaid"`
	ExpenseID   int64             `json:"expense_id"`
}

type aggregateResponse struct {
	State          string             `json:"state"`
	Periods        []core.PeriodJSON  `json:"periods"`
	Rows           []aggregateRow     `json:"rows"`
	Categories     []string           `json:"categories"`
	CategoryTotals map[string]float64 `json:"category_totals"`
	PeriodTotals   map[int64]float64  `json:"period_totals"`
	GrandTotal     float64            `json:"grand_total"`
}

// handleAPIAggregate runs the aggregation over caller-supplied data.
func (s *Server) handleAPIAggregate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil || !p.IsJSON() {
		JSONError(http.StatusBadRequest, msgNoData).Write(w)
		return
	}
	var req aggregateRequest
	if err := json.Unmarshal(p.Raw(), &req); err != nil {
		JSONError(http.StatusBadRequest, msgNoData).Write(w)
		return
	}

	snap := core.DecodeSnapshot(req.Periods, req.Expenses)
	agg := core.Aggregate(snap.Periods, snap.Expenses)
	tbl := core.BuildTable(&agg, core.TableQuery{
		Search:   sanitizeInput(req.Search),
		Category: sanitizeInput(req.Category),
		SortBy:   req.Sort,
		SortDir:  req.Dir,
	})

	resp := aggregateResponse{
		State:          tbl.State.String(),
		Periods:        make([]core.PeriodJSON, 0, len(agg.Periods)),
		Rows:           make([]aggregateRow, 0, len(tbl.Rows)),
		Categories:     agg.Categories,
		CategoryTotals: make(map[string]float64, len(agg.CategoryTotals)),
		PeriodTotals:   make(map[int64]float64, len(agg.PeriodTotals)),
		GrandTotal:     agg.GrandTotal.Float(),
	}
	for _, per := range agg.Periods {
		resp.Periods = append(resp.Periods, core.NewPeriodJSON(per))
	}
	for _, row := range tbl.Rows {
		out := aggregateRow{
			Key:         row.Key.String(),
			Category:    row.Key.Category,
			Description: row.Key.Description,
			ByPeriod:    make(map[int64]float64, len(row.ByPeriod)),
			Total:       row.Total.Float(),
			Paid:        row.Paid.Float(),
			Unpaid:      row.Unpaid.Float(),
			ExpenseID:   row.Primary().ID,
		}
		for id, m := range row.ByPeriod {
			out.ByPeriod[id] = m.Float()
		}
		resp.Rows = append(resp.Rows, out)
	}
	for c, m := range agg.CategoryTotals {
		resp.CategoryTotals[c] = m.Float()
	}
	for id, m := range agg.PeriodTotals {
		resp.PeriodTotals[id] = m.Float()
	}

	NewResponse().JSON(resp).Write(w)
}
