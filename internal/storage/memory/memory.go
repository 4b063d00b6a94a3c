// Package memory is a concurrency-safe in-process store used by tests and
// the memory data backend.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/ports"
)

// SeedExpensesFile is read by NewFromFiles.
const SeedExpensesFile = "seed_expenses.json"

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	expenses  []core.Expense
	paychecks []core.Paycheck
	now       func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewFromFiles seeds the store with the expenses in base/seed_expenses.json.
// The file uses the same array format as the aggregate endpoint; a missing
// or unreadable file gives an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, SeedExpensesFile))
	if err != nil {
		return s
	}
	snap := core.DecodeSnapshot([]byte("[]"), data)
	for _, e := range snap.Expenses {
		if _, err := s.CreateExpense(context.Background(), e); err != nil {
			continue
		}
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	e.CreatedAt = s.now().UTC()
	if !e.Recurring {
		e.Frequency = ""
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(e.ID)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, ports.ErrNotFound)
	}
	e.CreatedAt = s.expenses[i].CreatedAt
	e.ParentID = s.expenses[i].ParentID
	if !e.Recurring {
		e.Frequency = ""
	}
	s.expenses[i] = e
	return e, nil
}

func (s *Store) ToggleExpensePaid(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("toggle expense %d: %w", id, ports.ErrNotFound)
	}
	s.expenses[i].Paid = !s.expenses[i].Paid
	return s.expenses[i], nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ports.ErrNotFound)
	}
	return s.expenses[i], nil
}

func (s *Store) ListExpenses(_ context.Context, from, to core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	sortExpenses(out, false)
	return out, nil
}

func (s *Store) RecentExpenses(_ context.Context, n int) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.expenses...)
	s.mu.Unlock()
	sortExpenses(out, true)
	return head(out, n), nil
}

func (s *Store) RecurringExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Recurring && e.ParentID == nil {
			out = append(out, e)
		}
	}
	sortExpenses(out, false)
	return out, nil
}

func (s *Store) ChildDates(_ context.Context, parentID int64) ([]core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Date
	for _, e := range s.expenses {
		if e.ParentID != nil && *e.ParentID == parentID {
			out = append(out, e.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *Store) ExpenseExists(_ context.Context, date core.Date, category string, amount core.Money, description string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.Date.Equal(date) && e.Category == category && e.Amount == amount && e.Description == description {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreatePaycheck(_ context.Context, p core.Paycheck) (core.Paycheck, error) {
	if err := p.Validate(); err != nil {
		return core.Paycheck{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = s.now().UTC()
	s.paychecks = append(s.paychecks, p)
	return p, nil
}

func (s *Store) GetPaycheck(_ context.Context, id int64) (core.Paycheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paychecks {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Paycheck{}, fmt.Errorf("get paycheck %d: %w", id, ports.ErrNotFound)
}

func (s *Store) ListPaychecks(_ context.Context, from, to core.Date) ([]core.Paycheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Paycheck
	for _, p := range s.paychecks {
		if inRange(p.Date, from, to) {
			out = append(out, p)
		}
	}
	sortPaychecks(out, false)
	return out, nil
}

func (s *Store) RecentPaychecks(_ context.Context, n int) ([]core.Paycheck, error) {
	s.mu.Lock()
	out := append([]core.Paycheck(nil), s.paychecks...)
	s.mu.Unlock()
	sortPaychecks(out, true)
	if n <= 0 {
		n = 5
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Store) LatestPaycheck(_ context.Context, payType string) (core.Paycheck, error) {
	s.mu.Lock()
	out := append([]core.Paycheck(nil), s.paychecks...)
	s.mu.Unlock()
	sortPaychecks(out, true)
	for _, p := range out {
		if strings.EqualFold(p.PayType, payType) {
			return p, nil
		}
	}
	return core.Paycheck{}, fmt.Errorf("latest %s paycheck: %w", payType, ports.ErrNotFound)
}

func (s *Store) expenseIndex(id int64) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func inRange(d, from, to core.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func sortExpenses(items []core.Expense, newestFirst bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date) != newestFirst
		}
		return (a.ID < b.ID) != newestFirst
	})
}

func sortPaychecks(items []core.Paycheck, newestFirst bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date) != newestFirst
		}
		return (a.ID < b.ID) != newestFirst
	})
}

func head(items []core.Expense, n int) []core.Expense {
	if n <= 0 {
		n = 5
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
