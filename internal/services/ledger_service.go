package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, kind amqp.EventKind, recordID int64) error
}

// LedgerService writes expenses and paychecks to storage and publishes a
// ledger event for each change. Storage is the source of truth: a publish
// failure is logged and the write still succeeds.
type LedgerService struct {
	store     ports.Store
	publisher EventPublisher
	logger    *log.Logger

	mu       sync.RWMutex
	onChange []func()
}

// NewLedgerService wires the service. publisher may be nil when AMQP is not
// configured.
func NewLedgerService(store ports.Store, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// OnChange registers fn to run after every successful mutation.
func (s *LedgerService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// CreateExpense validates and stores e.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e = normalizeExpense(e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	log.NewStructuredLogger(s.logger).
		LogExpenseCreated(ctx, saved.ID, saved.Date.String(), saved.Category, saved.Description, saved.Amount.Cents)

	s.changed(ctx, amqp.ExpenseCreated, saved.ID)
	return saved, nil
}

// UpdateExpense replaces the stored fields of e.ID. The paid flag, parent and
// due date are kept from the stored row.
func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}

	e = normalizeExpense(e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.Paid = current.Paid
	e.ParentID = current.ParentID
	e.DueDate = current.DueDate

	saved, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, saved.ID)

	s.changed(ctx, amqp.ExpenseUpdated, saved.ID)
	return saved, nil
}

// TogglePaid flips the paid flag of expense id.
func (s *LedgerService) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	saved, err := s.store.ToggleExpensePaid(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("toggle paid %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense paid status toggled",
		log.FieldOperation, log.OpTogglePaid,
		log.FieldExpenseID, saved.ID,
		"paid", saved.Paid)

	s.changed(ctx, amqp.ExpensePaidToggled, saved.ID)
	return saved, nil
}

// AddIncome stores an income entry as a paycheck using the fixed income split.
func (s *LedgerService) AddIncome(ctx context.Context, in core.Income) (core.Paycheck, error) {
	if err := in.Validate(); err != nil {
		return core.Paycheck{}, err
	}
	return s.AddPaycheck(ctx, core.PaycheckFromIncome(in))
}

// AddPaycheck validates and stores p. A zero net is derived from gross and
// taxable.
func (s *LedgerService) AddPaycheck(ctx context.Context, p core.Paycheck) (core.Paycheck, error) {
	p.PayType = strings.TrimSpace(p.PayType)
	if p.Net.IsZero() {
		p.Net = core.PaycheckNet(p.Gross, p.Taxable)
	}
	if err := p.Validate(); err != nil {
		return core.Paycheck{}, err
	}

	saved, err := s.store.CreatePaycheck(ctx, p)
	if err != nil {
		return core.Paycheck{}, fmt.Errorf("save paycheck: %w", err)
	}

	log.NewStructuredLogger(s.logger).
		LogPaycheckCreated(ctx, saved.ID, saved.Date.String(), saved.PayType, saved.Net.Cents)

	s.changed(ctx, amqp.PaycheckCreated, saved.ID)
	return saved, nil
}

func (s *LedgerService) changed(ctx context.Context, kind amqp.EventKind, id int64) {
	s.mu.RLock()
	hooks := s.onChange
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}

	if err := s.publish(ctx, kind, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(kind),
			"record_id", id,
			log.FieldError, err)
	}
}

func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, id int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping ledger event",
			log.FieldEventKind, string(kind))
		return nil
	}
	return s.publisher.Publish(ctx, kind, id)
}

// Close closes storage and, when it can be closed, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

// normalizeExpense trims text fields and keeps the frequency only for
// recurring expenses.
func normalizeExpense(e core.Expense) core.Expense {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	if !e.Recurring {
		e.Frequency = ""
	}
	return e
}
