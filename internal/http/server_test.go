package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/middleware/trace"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Budget.PayAnchor = "2026-10-16"

	store := memory.New()
	ledger := services.NewLedgerService(store, nil, nil)
	srv, err := NewServer(&cfg, store, ledger, nil)
	require.NoError(t, err)
	srv.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestRootRedirectsToBudget(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/budget", rr.Header().Get("Location"))
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	}

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestBudgetPageEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/budget", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Budget Summary")
	assert.Contains(t, body, "No expenses found for this period.")
	assert.NotEmpty(t, rr.Header().Get(trace.HeaderRequestID))
}

func TestBudgetPageShowsExpenses(t *testing.T) {
	srv, store := newTestServer(t)
	_, err := store.CreateExpense(context.Background(), core.Expense{
		Date:        core.NewDate(2026, 10, 19),
		Category:    "Groceries",
		Description: "Weekly shop",
		Amount:      core.Money{Cents: 4250},
	})
	require.NoError(t, err)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/budget", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "groceries")
	assert.Contains(t, body, "Weekly shop")
	assert.Contains(t, body, "$42.50")
	assert.Contains(t, body, `data-toggle-paid="1"`)
	assert.Contains(t, body, `action="/expenses/toggle-paid/1"`)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/budget?search=rent", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No expenses match the current filters.")
}

func TestBudgetPageUnpaidColumn(t *testing.T) {
	srv, store := newTestServer(t)
	for _, e := range []core.Expense{
		{Date: core.NewDate(2026, 10, 19), Category: "Groceries", Description: "Weekly shop", Amount: core.Money{Cents: 4250}},
		{Date: core.NewDate(2026, 10, 19), Category: "Rent", Amount: core.Money{Cents: 100000}, Paid: true},
	} {
		_, err := store.CreateExpense(context.Background(), e)
		require.NoError(t, err)
	}

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/budget", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<th scope="col" class="num">Unpaid</th>`)
	assert.Contains(t, body, `<td class="num unpaid">$42.50</td>`)
	assert.Contains(t, body, `<td class="num unpaid"><span class="muted">Paid</span></td>`)
}

func TestStartingBalanceCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/budget?starting_balance=250.5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	c := findCookie(rr, core.StartingBalanceKey)
	require.NotNil(t, c)
	assert.Equal(t, "250.50", c.Value)
	assert.Contains(t, rr.Body.String(), `value="250.50"`)

	req := httptest.NewRequest(http.MethodGet, "/budget", nil)
	req.AddCookie(&http.Cookie{Name: core.StartingBalanceKey, Value: "75"})
	rr = serve(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="75.00"`)
}

func TestExpenseFormSubmit(t *testing.T) {
	srv, store := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/expense/add", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="category"`)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/expense/add?modal=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<html")

	rr = serve(srv, postForm("/expense/add", url.Values{
		"date": {"2026-10-20"}, "category": {"Food"}, "description": {"Lunch"}, "amount": {"abc"},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please enter an amount greater than zero.")
	assert.Contains(t, rr.Body.String(), `value="Lunch"`)

	rr = serve(srv, postForm("/expense/add", url.Values{
		"date": {"2026-10-20"}, "category": {"Food"}, "description": {"Lunch"}, "amount": {"12.30"},
	}))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/budget", rr.Header().Get("Location"))

	items, err := store.ListExpenses(context.Background(), core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1230), items[0].Amount.Cents)
}

func TestExpenseFormRejectsForeignRedirect(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, postForm("/expense/add", url.Values{
		"date": {"2026-10-20"}, "category": {"Food"}, "amount": {"5"}, "redirect": {"//evil.example"},
	}))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/budget", rr.Header().Get("Location"))
}

func TestAPIExpense(t *testing.T) {
	srv, store := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/expense", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No data provided", decodeBody(t, rr)["error"])

	rr = serve(srv, postJSON("/api/expense", `{"date":"2026-10-20","category":"","amount":10}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["success"])

	rr = serve(srv, postJSON("/api/expense",
		`{"date":"2026-10-20","category":"Utilities","description":"Power","amount":80.5,"recurring":true,"frequency":"monthly"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Expense added successfully", body["message"])

	items, err := store.RecurringExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.Monthly, items[0].Frequency)
	assert.Equal(t, int64(8050), items[0].Amount.Cents)
}

func TestTogglePaid(t *testing.T) {
	srv, store := newTestServer(t)
	e, err := store.CreateExpense(context.Background(), core.Expense{
		Date: core.NewDate(2026, 10, 19), Category: "Rent", Amount: core.Money{Cents: 100000},
	})
	require.NoError(t, err)

	toggle := func(path string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Accept", "application/json")
		return req
	}

	rr := serve(srv, toggle("/expenses/toggle-paid/1"))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["paid"])
	assert.Equal(t, "Expense marked as paid", body["message"])

	got, err := store.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)

	rr = serve(srv, toggle("/expenses/toggle-paid/999"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Expense not found", decodeBody(t, rr)["message"])
}

func TestTogglePaid_FormPost(t *testing.T) {
	srv, store := newTestServer(t)
	e, err := store.CreateExpense(context.Background(), core.Expense{
		Date: core.NewDate(2026, 10, 19), Category: "Rent", Amount: core.Money{Cents: 100000},
	})
	require.NoError(t, err)

	rr := serve(srv, postForm("/expenses/toggle-paid/1", url.Values{"redirect": {"/budget?search=rent"}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/budget?search=rent", rr.Header().Get("Location"))

	got, err := store.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)

	rr = serve(srv, postForm("/expenses/toggle-paid/1", url.Values{"redirect": {"//evil.example"}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/budget", rr.Header().Get("Location"))

	rr = serve(srv, postForm("/expenses/toggle-paid/999", url.Values{}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Expense not found.")
}

func TestEditExpense(t *testing.T) {
	srv, store := newTestServer(t)
	_, err := store.CreateExpense(context.Background(), core.Expense{
		Date: core.NewDate(2026, 10, 19), Category: "Fuel", Description: "Car", Amount: core.Money{Cents: 3000},
	})
	require.NoError(t, err)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/expenses/edit/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="30.00"`)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/expenses/edit/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(srv, postForm("/expenses/edit/1", url.Values{
		"date": {"2026-10-21"}, "category": {"Fuel"}, "description": {"Car"}, "amount": {"35"},
	}))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	got, err := store.GetExpense(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), got.Amount.Cents)
	assert.Equal(t, "2026-10-21", got.Date.String())
}

func TestIncomeAndPaycheck(t *testing.T) {
	srv, store := newTestServer(t)

	rr := serve(srv, postJSON("/api/income", `{"date":"2026-10-16","income_type":"salary","amount":"2000"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Income added successfully", decodeBody(t, rr)["message"])

	rr = serve(srv, postForm("/paycheck/add", url.Values{
		"date": {"2026-10-02"}, "pay_type": {core.PayRegular}, "gross_amount": {"1000"}, "taxable_amount": {"800"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	paychecks, err := store.ListPaychecks(context.Background(), core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, paychecks, 2)

	var manual core.Paycheck
	for _, p := range paychecks {
		if p.Date.String() == "2026-10-02" {
			manual = p
		}
	}
	assert.Equal(t, int64(80000), manual.Net.Cents)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Recent paychecks")
}

func TestPaycheckZeroOptionalAmounts(t *testing.T) {
	srv, store := newTestServer(t)

	rr := serve(srv, postForm("/paycheck/add", url.Values{
		"date": {"2026-10-02"}, "pay_type": {core.PayRegular}, "gross_amount": {"1000"},
		"taxable_amount": {"1000"}, "non_taxable_amount": {"0"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = serve(srv, postForm("/paycheck/add", url.Values{
		"date": {"2026-10-03"}, "pay_type": {core.PayThird}, "gross_amount": {"500"},
		"taxable_amount": {"0.00"}, "non_taxable_amount": {"500"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	paychecks, err := store.ListPaychecks(context.Background(), core.NewDate(2026, 10, 2), core.NewDate(2026, 10, 3))
	require.NoError(t, err)
	byDate := make(map[string]core.Paycheck, len(paychecks))
	for _, p := range paychecks {
		byDate[p.Date.String()] = p
	}
	require.Contains(t, byDate, "2026-10-02")
	require.Contains(t, byDate, "2026-10-03")
	assert.Equal(t, int64(0), byDate["2026-10-02"].NonTaxable.Cents)
	assert.Equal(t, int64(0), byDate["2026-10-03"].Taxable.Cents)

	rr = serve(srv, postForm("/paycheck/add", url.Values{
		"date": {"2026-10-04"}, "pay_type": {core.PayRegular}, "gross_amount": {"1000"},
		"taxable_amount": {"-1"},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestIncomeJSONValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/income", "/api/income/add"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(srv, postJSON(path, `{"date":"2026-10-16","income_type":"","amount":"100"}`))
			require.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Please choose an income type.", body["error"])

			rr = serve(srv, postJSON(path, `{"date":"2026-10-16","income_type":"salary","amount":"abc"}`))
			require.Equal(t, http.StatusBadRequest, rr.Code)
			body = decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}

	rr := serve(srv, postJSON("/api/income/add", `{"date":"2026-10-16","income_type":"salary","amount":"50"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["success"])
}

func TestIncomeConcurrentCustomType(t *testing.T) {
	srv, store := newTestServer(t)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := serve(srv, postJSON("/api/income", `{"date":"2026-10-16","income_type":"bonus payment","amount":"10"}`))
			codes[i] = rr.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "request %d", i)
	}

	paychecks, err := store.ListPaychecks(context.Background(), core.NewDate(2026, 10, 16), core.NewDate(2026, 10, 16))
	require.NoError(t, err)
	var bonus int
	for _, p := range paychecks {
		if p.PayType == "Bonus Payment" {
			bonus++
		}
	}
	assert.Equal(t, n, bonus)
}

func TestColumnWidths(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, postJSON("/budget/columns", `{"category": 220}`))
	require.Equal(t, http.StatusOK, rr.Code)
	c := findCookie(rr, core.ColumnWidthsKey)
	require.NotNil(t, c)

	req := httptest.NewRequest(http.MethodGet, "/budget", nil)
	req.AddCookie(c)
	rr = serve(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(srv, httptest.NewRequest(http.MethodPost, "/budget/columns", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/budget/columns/reset", nil)
	req.Header.Set("Accept", "application/json")
	rr = serve(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)
	cleared := findCookie(rr, core.ColumnWidthsKey)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

func TestAPIAggregate(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, postJSON("/api/aggregate", `[1,2]`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(srv, postJSON("/api/aggregate", `{
		"periods": [{"id": 1, "date": "2026-10-02", "start_date": "2026-10-02", "end_date": "2026-10-15"}],
		"expenses": [
			{"id": 1, "date": "2026-10-05", "category": "Food", "description": "Lunch", "amount": "12.50"},
			{"id": 2, "date": "2026-10-06", "category": "food", "description": "Lunch", "amount": 7.5}
		]
	}`))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp aggregateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.State)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "food", resp.Rows[0].Category)
	assert.InDelta(t, 20.0, resp.Rows[0].Total, 0.001)
	assert.InDelta(t, 20.0, resp.GrandTotal, 0.001)
}

func TestSalaryForecast(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/salary_forecast", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "pay_anchor", body["source"])
	paydays, ok := body["paydays"].([]any)
	require.True(t, ok)
	assert.Len(t, paydays, core.ForecastPaydays)
}

func TestBudgetDataAndChart(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	_, err := store.CreateExpense(ctx, core.Expense{Date: core.NewDate(2026, 10, 1), Category: "Food", Amount: core.Money{Cents: 1000}})
	require.NoError(t, err)
	_, err = store.CreatePaycheck(ctx, core.Paycheck{
		Date: core.NewDate(2026, 10, 2), PayType: core.PayRegular,
		Gross: core.Money{Cents: 200000}, Net: core.Money{Cents: 150000},
	})
	require.NoError(t, err)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/budget_data", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Len(t, body["income"], 1)
	assert.Len(t, body["expenses"], 1)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/dashboard/chart?from=2026-10-01&to=2026-10-31", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var chart chartData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chart))
	assert.Equal(t, []string{"2026-10-02"}, chart.Income.Labels)
	assert.Equal(t, []float64{1500}, chart.Income.Net)
	assert.Equal(t, []string{"food"}, chart.Expenses.Labels)
}

func TestNotFoundAndScanner(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "does not exist")

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/.env", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, int64(1), srv.detector.SuspiciousCount())
}
