package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ports"
	"budget/internal/storage/memory"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) ports.Store{
		"sqlite": func(t *testing.T) ports.Store { return newTestRepository(t) },
		"memory": func(*testing.T) ports.Store { return memory.New() },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("expenses", func(t *testing.T) { testExpenses(t, open(t)) })
			t.Run("recurring children", func(t *testing.T) { testRecurringChildren(t, open(t)) })
			t.Run("paychecks", func(t *testing.T) { testPaychecks(t, open(t)) })
		})
	}
}

func testExpenses(t *testing.T, s ports.Store) {
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	created, err := s.CreateExpense(ctx, core.Expense{
		Date:        core.NewDate(2024, 1, 5),
		Category:    "Food",
		Description: "Groceries",
		Amount:      core.Money{Cents: 4550},
		Frequency:   core.Monthly, // dropped: not recurring
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, core.Frequency(""), created.Frequency)

	_, err = s.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 2, 1), Category: "Rent", Amount: core.Money{Cents: 100000}})
	require.NoError(t, err)

	_, err = s.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 2, 1), Category: "", Amount: core.Money{Cents: 1}})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	got, err := s.GetExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Description)
	assert.True(t, got.Date.Equal(core.NewDate(2024, 1, 5)))

	_, err = s.GetExpense(ctx, 9999)
	assert.True(t, errors.Is(err, ports.ErrNotFound))

	toggled, err := s.ToggleExpensePaid(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Paid)
	toggled, err = s.ToggleExpensePaid(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Paid)

	_, err = s.ToggleExpensePaid(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	got.Amount = core.Money{Cents: 5000}
	got.Paid = true
	updated, err := s.UpdateExpense(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), updated.Amount.Cents)
	assert.True(t, updated.Paid)

	jan, err := s.ListExpenses(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, jan, 1)
	assert.Equal(t, created.ID, jan[0].ID)

	all, err := s.ListExpenses(ctx, core.Date{}, core.Date{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, err := s.RecentExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Rent", recent[0].Category)

	exists, err := s.ExpenseExists(ctx, core.NewDate(2024, 2, 1), "Rent", core.Money{Cents: 100000}, "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.ExpenseExists(ctx, core.NewDate(2024, 2, 1), "Rent", core.Money{Cents: 99}, "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testRecurringChildren(t *testing.T, s ports.Store) {
	ctx := context.Background()
	parent, err := s.CreateExpense(ctx, core.Expense{
		Date:      core.NewDate(2024, 1, 1),
		Category:  "Gym",
		Amount:    core.Money{Cents: 3000},
		Recurring: true,
		Frequency: core.Monthly,
	})
	require.NoError(t, err)

	children, err := core.Materialize(parent, nil, core.NewDate(2023, 12, 1), core.NewDate(2024, 3, 1))
	require.NoError(t, err)
	for _, c := range children {
		_, err := s.CreateExpense(ctx, c)
		require.NoError(t, err)
	}

	parents, err := s.RecurringExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, parent.ID, parents[0].ID)
	assert.Equal(t, core.Monthly, parents[0].Frequency)

	dates, err := s.ChildDates(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(core.NewDate(2024, 1, 31)))

	child, err := s.GetExpense(ctx, parent.ID+1)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func testPaychecks(t *testing.T, s ports.Store) {
	ctx := context.Background()
	first, err := s.CreatePaycheck(ctx, core.PaycheckFromIncome(core.Income{
		Date:   core.NewDate(2024, 1, 5),
		Type:   core.IncomeSalary,
		Amount: core.Money{Cents: 200000},
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(170000), first.Net.Cents)

	_, err = s.CreatePaycheck(ctx, core.Paycheck{Date: core.NewDate(2024, 1, 19), PayType: core.PayRegular, Gross: core.Money{Cents: 210000}, Net: core.Money{Cents: 180000}})
	require.NoError(t, err)
	_, err = s.CreatePaycheck(ctx, core.Paycheck{Date: core.NewDate(2024, 1, 25), PayType: core.PayTaxReturn, Gross: core.Money{Cents: 5000}, Net: core.Money{Cents: 5000}})
	require.NoError(t, err)

	_, err = s.CreatePaycheck(ctx, core.Paycheck{Date: core.NewDate(2024, 1, 25), PayType: "", Gross: core.Money{Cents: 5000}})
	assert.ErrorIs(t, err, core.ErrEmptyPayType)

	got, err := s.GetPaycheck(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PayRegular, got.PayType)

	list, err := s.ListPaychecks(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 20))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	recent, err := s.RecentPaychecks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, core.PayTaxReturn, recent[0].PayType)

	latest, err := s.LatestPaycheck(ctx, core.PayRegular)
	require.NoError(t, err)
	assert.True(t, latest.Date.Equal(core.NewDate(2024, 1, 19)))

	_, err = s.LatestPaycheck(ctx, core.PayTransfer)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	repo.Close()

	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}
