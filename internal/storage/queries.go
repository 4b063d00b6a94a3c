package storage

import (
	"context"
	"database/sql"
)

const expenseColumns = `id, date, category, description, amount_cents, recurring, frequency, paid, parent_id, due_date, created_at, updated_at`

const paycheckColumns = `id, date, pay_type, gross_cents, taxable_cents, non_taxable_cents, net_cents, phone_stipend, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Category,
		&i.Description,
		&i.AmountCents,
		&i.Recurring,
		&i.Frequency,
		&i.Paid,
		&i.ParentID,
		&i.DueDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPaycheck(row rowScanner) (Paycheck, error) {
	var i Paycheck
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.PayType,
		&i.GrossCents,
		&i.TaxableCents,
		&i.NonTaxableCents,
		&i.NetCents,
		&i.PhoneStipend,
		&i.CreatedAt,
	)
	return i, err
}

func collectExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func collectPaychecks(rows *sql.Rows) ([]Paycheck, error) {
	defer rows.Close()
	var items []Paycheck
	for rows.Next() {
		i, err := scanPaycheck(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (date, category, description, amount_cents, recurring, frequency, paid, parent_id, due_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	Date        string
	Category    string
	Description string
	AmountCents int64
	Recurring   int64
	Frequency   string
	Paid        int64
	ParentID    sql.NullInt64
	DueDate     sql.NullString
	CreatedAt   int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Date,
		arg.Category,
		arg.Description,
		arg.AmountCents,
		arg.Recurring,
		arg.Frequency,
		arg.Paid,
		arg.ParentID,
		arg.DueDate,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanExpense(row)
}

const updateExpense = `-- name: UpdateExpense :one
UPDATE expenses
SET date = ?, category = ?, description = ?, amount_cents = ?, recurring = ?, frequency = ?, paid = ?, due_date = ?, updated_at = ?
WHERE id = ?
RETURNING ` + expenseColumns

type UpdateExpenseParams struct {
	ID          int64
	Date        string
	Category    string
	Description string
	AmountCents int64
	Recurring   int64
	Frequency   string
	Paid        int64
	DueDate     sql.NullString
	UpdatedAt   int64
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, updateExpense,
		arg.Date,
		arg.Category,
		arg.Description,
		arg.AmountCents,
		arg.Recurring,
		arg.Frequency,
		arg.Paid,
		arg.DueDate,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanExpense(row)
}

const toggleExpensePaid = `-- name: ToggleExpensePaid :one
UPDATE expenses SET paid = 1 - paid, updated_at = ? WHERE id = ?
RETURNING ` + expenseColumns

func (q *Queries) ToggleExpensePaid(ctx context.Context, id int64, updatedAt int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, toggleExpensePaid, updatedAt, id)
	return scanExpense(row)
}

const getExpense = `-- name: GetExpense :one
SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	return scanExpense(row)
}

const listExpensesBetween = `-- name: ListExpensesBetween :many
SELECT ` + expenseColumns + ` FROM expenses
WHERE date >= ? AND date <= ?
ORDER BY date, id`

func (q *Queries) ListExpensesBetween(ctx context.Context, from, to string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, from, to)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

const recentExpenses = `-- name: RecentExpenses :many
SELECT ` + expenseColumns + ` FROM expenses
ORDER BY date DESC, id DESC
LIMIT ?`

func (q *Queries) RecentExpenses(ctx context.Context, limit int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, recentExpenses, limit)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

const recurringExpenses = `-- name: RecurringExpenses :many
SELECT ` + expenseColumns + ` FROM expenses
WHERE recurring = 1 AND parent_id IS NULL
ORDER BY date, id`

func (q *Queries) RecurringExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, recurringExpenses)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

const childDates = `-- name: ChildDates :many
SELECT date FROM expenses WHERE parent_id = ? ORDER BY date`

func (q *Queries) ChildDates(ctx context.Context, parentID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, childDates, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		items = append(items, date)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const expenseExists = `-- name: ExpenseExists :one
SELECT EXISTS(
    SELECT 1 FROM expenses
    WHERE date = ? AND category = ? AND amount_cents = ? AND description = ?
)`

type ExpenseExistsParams struct {
	Date        string
	Category    string
	AmountCents int64
	Description string
}

func (q *Queries) ExpenseExists(ctx context.Context, arg ExpenseExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, expenseExists, arg.Date, arg.Category, arg.AmountCents, arg.Description)
	var exists int64
	err := row.Scan(&exists)
	return exists == 1, err
}

const createPaycheck = `-- name: CreatePaycheck :one
INSERT INTO paychecks (date, pay_type, gross_cents, taxable_cents, non_taxable_cents, net_cents, phone_stipend, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + paycheckColumns

type CreatePaycheckParams struct {
	Date            string
	PayType         string
	GrossCents      int64
	TaxableCents    int64
	NonTaxableCents int64
	NetCents        int64
	PhoneStipend    int64
	CreatedAt       int64
}

func (q *Queries) CreatePaycheck(ctx context.Context, arg CreatePaycheckParams) (Paycheck, error) {
	row := q.db.QueryRowContext(ctx, createPaycheck,
		arg.Date,
		arg.PayType,
		arg.GrossCents,
		arg.TaxableCents,
		arg.NonTaxableCents,
		arg.NetCents,
		arg.PhoneStipend,
		arg.CreatedAt,
	)
	return scanPaycheck(row)
}

const getPaycheck = `-- name: GetPaycheck :one
SELECT ` + paycheckColumns + ` FROM paychecks WHERE id = ?`

func (q *Queries) GetPaycheck(ctx context.Context, id int64) (Paycheck, error) {
	row := q.db.QueryRowContext(ctx, getPaycheck, id)
	return scanPaycheck(row)
}

const listPaychecksBetween = `-- name: ListPaychecksBetween :many
SELECT ` + paycheckColumns + ` FROM paychecks
WHERE date >= ? AND date <= ?
ORDER BY date, id`

func (q *Queries) ListPaychecksBetween(ctx context.Context, from, to string) ([]Paycheck, error) {
	rows, err := q.db.QueryContext(ctx, listPaychecksBetween, from, to)
	if err != nil {
		return nil, err
	}
	return collectPaychecks(rows)
}

const recentPaychecks = `-- name: RecentPaychecks :many
SELECT ` + paycheckColumns + ` FROM paychecks
ORDER BY date DESC, id DESC
LIMIT ?`

func (q *Queries) RecentPaychecks(ctx context.Context, limit int64) ([]Paycheck, error) {
	rows, err := q.db.QueryContext(ctx, recentPaychecks, limit)
	if err != nil {
		return nil, err
	}
	return collectPaychecks(rows)
}

const latestPaycheckByType = `-- name: LatestPaycheckByType :one
SELECT ` + paycheckColumns + ` FROM paychecks
WHERE pay_type = ? COLLATE NOCASE
ORDER BY date DESC, id DESC
LIMIT 1`

func (q *Queries) LatestPaycheckByType(ctx context.Context, payType string) (Paycheck, error) {
	row := q.db.QueryRowContext(ctx, latestPaycheckByType, payType)
	return scanPaycheck(row)
}
