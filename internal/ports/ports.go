// Package ports declares the storage and export interfaces shared by the
// services, HTTP handlers and background workers.
package ports

import (
	"context"
	"errors"

	"budget/internal/core"
)

// ErrNotFound is returned by every store when a record does not exist.
var ErrNotFound = errors.New("not found")

type (
	ExpenseWriter interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// ToggleExpensePaid flips the paid flag and returns the updated row.
		ToggleExpensePaid(ctx context.Context, id int64) (core.Expense, error)
	}

	ExpenseReader interface {
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		// ListExpenses returns expenses dated inside [from, to], oldest first.
		// A zero bound is open.
		ListExpenses(ctx context.Context, from, to core.Date) ([]core.Expense, error)
		RecentExpenses(ctx context.Context, n int) ([]core.Expense, error)
		// RecurringExpenses returns the recurring parents.
		RecurringExpenses(ctx context.Context) ([]core.Expense, error)
		// ChildDates returns the dates already materialized for a parent.
		ChildDates(ctx context.Context, parentID int64) ([]core.Date, error)
		ExpenseExists(ctx context.Context, date core.Date, category string, amount core.Money, description string) (bool, error)
	}

	PaycheckWriter interface {
		CreatePaycheck(ctx context.Context, p core.Paycheck) (core.Paycheck, error)
	}

	PaycheckReader interface {
		GetPaycheck(ctx context.Context, id int64) (core.Paycheck, error)
		// ListPaychecks returns paychecks dated inside [from, to], oldest first.
		ListPaychecks(ctx context.Context, from, to core.Date) ([]core.Paycheck, error)
		RecentPaychecks(ctx context.Context, n int) ([]core.Paycheck, error)
		// LatestPaycheck returns the most recent paycheck of payType.
		LatestPaycheck(ctx context.Context, payType string) (core.Paycheck, error)
	}

	// Store is the full persistence surface.
	Store interface {
		ExpenseWriter
		ExpenseReader
		PaycheckWriter
		PaycheckReader
		Ping(ctx context.Context) error
		Close() error
	}

	// LedgerExporter mirrors stored records to an external ledger.
	LedgerExporter interface {
		ExportExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
		ExportPaycheck(ctx context.Context, p core.Paycheck) (rowRef string, err error)
	}
)
