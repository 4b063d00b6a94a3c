package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	"budget/internal/ports"

	_ "modernc.org/sqlite"
)

const (
	sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	// RecentLimit is used when a caller asks for a non-positive number of rows.
	RecentLimit = 5
	maxDate     = "9999-12-31"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + sqlitePragmas
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Recurring:   boolToInt(e.Recurring),
		Frequency:   frequencyFor(e),
		Paid:        boolToInt(e.Paid),
		ParentID:    nullInt(e.ParentID),
		DueDate:     nullDate(e.DueDate),
		CreatedAt:   r.now().Unix(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Recurring:   boolToInt(e.Recurring),
		Frequency:   frequencyFor(e),
		Paid:        boolToInt(e.Paid),
		DueDate:     nullDate(e.DueDate),
		UpdatedAt:   r.now().Unix(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, notFound(err))
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) ToggleExpensePaid(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.ToggleExpensePaid(ctx, id, r.now().Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("toggle expense %d: %w", id, notFound(err))
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, notFound(err))
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	lo, hi := dateBounds(from, to)
	rows, err := r.queries.ListExpensesBetween(ctx, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toCoreExpenses(rows), nil
}

func (r *SQLiteRepository) RecentExpenses(ctx context.Context, n int) ([]core.Expense, error) {
	if n <= 0 {
		n = RecentLimit
	}
	rows, err := r.queries.RecentExpenses(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	return toCoreExpenses(rows), nil
}

func (r *SQLiteRepository) RecurringExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.RecurringExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("recurring expenses: %w", err)
	}
	return toCoreExpenses(rows), nil
}

func (r *SQLiteRepository) ChildDates(ctx context.Context, parentID int64) ([]core.Date, error) {
	rows, err := r.queries.ChildDates(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("child dates of %d: %w", parentID, err)
	}
	dates := make([]core.Date, 0, len(rows))
	for _, s := range rows {
		if d, err := core.ParseDate(s); err == nil {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func (r *SQLiteRepository) ExpenseExists(ctx context.Context, date core.Date, category string, amount core.Money, description string) (bool, error) {
	ok, err := r.queries.ExpenseExists(ctx, ExpenseExistsParams{
		Date:        date.String(),
		Category:    category,
		AmountCents: amount.Cents,
		Description: description,
	})
	if err != nil {
		return false, fmt.Errorf("check expense exists: %w", err)
	}
	return ok, nil
}

func (r *SQLiteRepository) CreatePaycheck(ctx context.Context, p core.Paycheck) (core.Paycheck, error) {
	if err := p.Validate(); err != nil {
		return core.Paycheck{}, err
	}
	row, err := r.queries.CreatePaycheck(ctx, CreatePaycheckParams{
		Date:            p.Date.String(),
		PayType:         p.PayType,
		GrossCents:      p.Gross.Cents,
		TaxableCents:    p.Taxable.Cents,
		NonTaxableCents: p.NonTaxable.Cents,
		NetCents:        p.Net.Cents,
		PhoneStipend:    boolToInt(p.PhoneStipend),
		CreatedAt:       r.now().Unix(),
	})
	if err != nil {
		return core.Paycheck{}, fmt.Errorf("create paycheck: %w", err)
	}
	return toCorePaycheck(row), nil
}

func (r *SQLiteRepository) GetPaycheck(ctx context.Context, id int64) (core.Paycheck, error) {
	row, err := r.queries.GetPaycheck(ctx, id)
	if err != nil {
		return core.Paycheck{}, fmt.Errorf("get paycheck %d: %w", id, notFound(err))
	}
	return toCorePaycheck(row), nil
}

func (r *SQLiteRepository) ListPaychecks(ctx context.Context, from, to core.Date) ([]core.Paycheck, error) {
	lo, hi := dateBounds(from, to)
	rows, err := r.queries.ListPaychecksBetween(ctx, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list paychecks: %w", err)
	}
	return toCorePaychecks(rows), nil
}

func (r *SQLiteRepository) RecentPaychecks(ctx context.Context, n int) ([]core.Paycheck, error) {
	if n <= 0 {
		n = RecentLimit
	}
	rows, err := r.queries.RecentPaychecks(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("recent paychecks: %w", err)
	}
	return toCorePaychecks(rows), nil
}

func (r *SQLiteRepository) LatestPaycheck(ctx context.Context, payType string) (core.Paycheck, error) {
	row, err := r.queries.LatestPaycheckByType(ctx, payType)
	if err != nil {
		return core.Paycheck{}, fmt.Errorf("latest %s paycheck: %w", payType, notFound(err))
	}
	return toCorePaycheck(row), nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}

func dateBounds(from, to core.Date) (string, string) {
	hi := maxDate
	if !to.IsZero() {
		hi = to.String()
	}
	return from.String(), hi
}

// frequencyFor drops the frequency of non-recurring expenses.
func frequencyFor(e core.Expense) string {
	if !e.Recurring {
		return ""
	}
	return string(e.Frequency)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func toCoreExpense(e Expense) core.Expense {
	date, _ := core.ParseDate(e.Date)
	out := core.Expense{
		ID:          e.ID,
		Date:        date,
		Category:    e.Category,
		Description: e.Description,
		Amount:      core.Money{Cents: e.AmountCents},
		Recurring:   e.Recurring == 1,
		Frequency:   core.Frequency(e.Frequency),
		Paid:        e.Paid == 1,
		CreatedAt:   time.Unix(e.CreatedAt, 0).UTC(),
	}
	if e.ParentID.Valid {
		id := e.ParentID.Int64
		out.ParentID = &id
	}
	if e.DueDate.Valid {
		if d, err := core.ParseDate(e.DueDate.String); err == nil {
			out.DueDate = &d
		}
	}
	return out
}

func toCoreExpenses(rows []Expense) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = toCoreExpense(e)
	}
	return out
}

func toCorePaycheck(p Paycheck) core.Paycheck {
	date, _ := core.ParseDate(p.Date)
	return core.Paycheck{
		ID:           p.ID,
		Date:         date,
		PayType:      p.PayType,
		Gross:        core.Money{Cents: p.GrossCents},
		Taxable:      core.Money{Cents: p.TaxableCents},
		NonTaxable:   core.Money{Cents: p.NonTaxableCents},
		Net:          core.Money{Cents: p.NetCents},
		PhoneStipend: p.PhoneStipend == 1,
		CreatedAt:    time.Unix(p.CreatedAt, 0).UTC(),
	}
}

func toCorePaychecks(rows []Paycheck) []core.Paycheck {
	out := make([]core.Paycheck, len(rows))
	for i, p := range rows {
		out[i] = toCorePaycheck(p)
	}
	return out
}
