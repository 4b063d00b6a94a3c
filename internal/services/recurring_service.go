package services

import (
	"context"
	"fmt"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// RecurringService writes the rows that recurring expenses and the regular
// pay schedule imply. Every row goes through the LedgerService so events
// and cache invalidation happen as for manual entries.
type RecurringService struct {
	store  ports.Store
	ledger *LedgerService
	logger *log.Logger
}

func NewRecurringService(store ports.Store, ledger *LedgerService, logger *log.Logger) *RecurringService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecurringService{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentRecurring),
	}
}

// MaterializeAll creates the missing child expenses of every recurring parent
// up to horizonDays after today. A failing parent is logged and skipped.
func (s *RecurringService) MaterializeAll(ctx context.Context, today core.Date, horizonDays int) (int, error) {
	if s.store == nil || s.ledger == nil {
		return 0, fmt.Errorf("recurring service not properly initialized")
	}
	if horizonDays <= 0 {
		horizonDays = core.MaterializeHorizonDays
	}

	parents, err := s.store.RecurringExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring expenses: %w", err)
	}

	s.logger.InfoContext(ctx, "Materializing recurring expenses",
		log.FieldOperation, log.OpMaterialize,
		log.FieldCount, len(parents),
		log.FieldDate, today.String())

	horizon := today.AddDays(horizonDays)
	created := 0
	for _, parent := range parents {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		n, err := s.materializeOne(ctx, parent, today, horizon)
		created += n
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to materialize recurring expense",
				log.FieldExpenseID, parent.ID,
				log.FieldFrequency, string(parent.Frequency),
				log.FieldError, err)
			continue
		}
	}

	s.logger.InfoContext(ctx, "Recurring expense materialization complete",
		"created", created,
		"parents", len(parents))

	return created, nil
}

func (s *RecurringService) materializeOne(ctx context.Context, parent core.Expense, today, horizon core.Date) (int, error) {
	existing, err := s.store.ChildDates(ctx, parent.ID)
	if err != nil {
		return 0, fmt.Errorf("child dates: %w", err)
	}

	rows, err := core.Materialize(parent, existing, today, horizon)
	if err != nil {
		return 0, err
	}

	for i, row := range rows {
		if _, err := s.ledger.CreateExpense(ctx, row); err != nil {
			return i, fmt.Errorf("create occurrence %s: %w", row.Date, err)
		}
	}
	return len(rows), nil
}

// PaycheckPlan describes a regular pay schedule to write.
type PaycheckPlan struct {
	// First anchors the schedule; dates before it are derived backwards.
	First core.Date
	Start core.Date
	End   core.Date
	// Every is the number of days between paychecks, 14 when zero.
	Every int
	Gross core.Money
	Net   core.Money
}

// GeneratePaychecks stores a Regular paycheck for each scheduled date in
// [plan.Start, plan.End] that does not already have one.
func (s *RecurringService) GeneratePaychecks(ctx context.Context, plan PaycheckPlan) (int, error) {
	if s.store == nil || s.ledger == nil {
		return 0, fmt.Errorf("recurring service not properly initialized")
	}
	if plan.Every <= 0 {
		plan.Every = 14
	}
	if plan.Start.IsZero() {
		plan.Start = plan.First
	}
	if plan.End.IsZero() {
		plan.End = plan.First.AddDays(365)
	}
	if err := plan.Gross.Validate(); err != nil {
		return 0, err
	}

	dates := core.PaycheckDates(plan.Start, plan.End, plan.First, plan.Every)
	if len(dates) == 0 {
		return 0, fmt.Errorf("no paycheck dates in %s..%s", plan.Start, plan.End)
	}

	existing, err := s.store.ListPaychecks(ctx, plan.Start, plan.End)
	if err != nil {
		return 0, fmt.Errorf("list paychecks: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		if strings.EqualFold(p.PayType, core.PayRegular) {
			taken[p.Date.String()] = true
		}
	}

	net := plan.Net
	if net.IsZero() {
		net = core.PaycheckNet(plan.Gross, plan.Gross)
	}

	created := 0
	for _, d := range dates {
		if taken[d.String()] {
			continue
		}
		_, err := s.ledger.AddPaycheck(ctx, core.Paycheck{
			Date:    d,
			PayType: core.PayRegular,
			Gross:   plan.Gross,
			Taxable: plan.Gross,
			Net:     net,
		})
		if err != nil {
			return created, fmt.Errorf("create paycheck %s: %w", d, err)
		}
		created++
	}

	s.logger.InfoContext(ctx, "Paycheck generation complete",
		log.FieldOperation, log.OpGenerate,
		"created", created,
		"skipped", len(dates)-created)

	return created, nil
}
