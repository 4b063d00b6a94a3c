// Package worker turns ledger events into rows of the external ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// Reader is the storage the worker loads records from.
type Reader interface {
	ports.ExpenseReader
	ports.PaycheckReader
}

// ExportWorker exports the record behind each ledger event.
type ExportWorker struct {
	store    Reader
	exporter ports.LedgerExporter
	logger   *log.Logger
}

func NewExportWorker(store Reader, exporter ports.LedgerExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent loads the record and exports it. A record that no longer
// exists is logged and dropped; any other error is returned so the message
// is redelivered.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventID, ev.ID,
		log.FieldEventKind, string(ev.Kind),
		"record_id", ev.RecordID)

	var (
		ref string
		err error
	)
	if ev.Kind.IsExpense() {
		ref, err = w.exportExpense(ctx, ev.RecordID)
	} else {
		ref, err = w.exportPaycheck(ctx, ev.RecordID)
	}

	if errors.Is(err, ports.ErrNotFound) {
		w.logger.WarnContext(ctx, "Ledger record not found, dropping event",
			log.FieldEventID, ev.ID,
			"record_id", ev.RecordID)
		return nil
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export ledger record",
			log.FieldEventID, ev.ID,
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		return err
	}

	w.logger.InfoContext(ctx, "Exported ledger record",
		log.FieldEventID, ev.ID,
		"row_ref", ref)
	return nil
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) (string, error) {
	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get expense from storage: %w", err)
	}
	ref, err := w.exporter.ExportExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("export expense %d: %w", id, err)
	}
	return ref, nil
}

func (w *ExportWorker) exportPaycheck(ctx context.Context, id int64) (string, error) {
	p, err := w.store.GetPaycheck(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get paycheck from storage: %w", err)
	}
	ref, err := w.exporter.ExportPaycheck(ctx, p)
	if err != nil {
		return "", fmt.Errorf("export paycheck %d: %w", id, err)
	}
	return ref, nil
}

// ExportRange exports every expense and paycheck dated inside [from, to].
// It is the backfill for events lost while the broker was unavailable.
func (w *ExportWorker) ExportRange(ctx context.Context, from, to core.Date) (int, error) {
	expenses, err := w.store.ListExpenses(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	paychecks, err := w.store.ListPaychecks(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list paychecks: %w", err)
	}

	w.logger.InfoContext(ctx, "Exporting ledger range",
		"from", from.String(),
		"to", to.String(),
		log.FieldCount, len(expenses)+len(paychecks))

	exported := 0
	for _, e := range expenses {
		if _, err := w.exporter.ExportExpense(ctx, e); err != nil {
			return exported, fmt.Errorf("export expense %d: %w", e.ID, err)
		}
		exported++
	}
	for _, p := range paychecks {
		if _, err := w.exporter.ExportPaycheck(ctx, p); err != nil {
			return exported, fmt.Errorf("export paycheck %d: %w", p.ID, err)
		}
		exported++
	}
	return exported, nil
}
