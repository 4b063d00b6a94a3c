// Package memory records ledger rows in process. It backs the worker when
// no spreadsheet is configured and the worker tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/core"
	"budget/internal/ports"
	"budget/internal/sheets"
)

var _ ports.LedgerExporter = (*Exporter)(nil)

type Exporter struct {
	mu   sync.Mutex
	rows []sheets.Row
}

func New() *Exporter {
	return &Exporter{}
}

// ExportExpense records the row and returns a synthetic row reference.
func (x *Exporter) ExportExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return x.append(sheets.ExpenseRow(e)), nil
}

func (x *Exporter) ExportPaycheck(_ context.Context, p core.Paycheck) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return x.append(sheets.PaycheckRow(p)), nil
}

// Rows returns a copy of everything exported so far.
func (x *Exporter) Rows() []sheets.Row {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]sheets.Row(nil), x.rows...)
}

func (x *Exporter) append(r sheets.Row) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rows = append(x.rows, r)
	return fmt.Sprintf("mem:%d", len(x.rows))
}
