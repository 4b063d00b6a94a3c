// Package sheets defines the ledger row layout shared by the exporters.
package sheets

import (
	"strconv"

	"budget/internal/core"
)

// Kinds written to the first column.
const (
	KindExpense  = "expense"
	KindPaycheck = "paycheck"
)

// Header is the first row of a ledger sheet. Columns A:H.
var Header = []any{"Kind", "ID", "Date", "Category", "Description", "Amount", "Paid", "Frequency"}

// Row is one ledger line in column order.
type Row []any

// ExpenseRow lays out an expense. Amounts are written as numbers so the
// sheet can sum them.
func ExpenseRow(e core.Expense) Row {
	return Row{
		KindExpense,
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Category,
		e.Description,
		e.Amount.Float(),
		e.Paid,
		string(e.Frequency),
	}
}

// PaycheckRow lays out a paycheck. The category column carries the pay type
// and the amount is the net.
func PaycheckRow(p core.Paycheck) Row {
	return Row{
		KindPaycheck,
		strconv.FormatInt(p.ID, 10),
		p.Date.String(),
		p.PayType,
		"",
		p.Net.Float(),
		true,
		"",
	}
}
