package services

import (
	"context"
	"testing"
	"time"

	"budget/internal/core"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.HorizonDays != core.MaterializeHorizonDays {
		t.Errorf("expected HorizonDays %d, got %d", core.MaterializeHorizonDays, config.HorizonDays)
	}
}

func TestScheduler_IsRunning(t *testing.T) {
	scheduler := NewScheduler(nil, DefaultSchedulerConfig(), nil)

	if scheduler.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	scheduler := NewScheduler(nil, DefaultSchedulerConfig(), nil)

	scheduler.mu.Lock()
	scheduler.running = true
	scheduler.mu.Unlock()

	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running scheduler")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	scheduler := NewScheduler(nil, DefaultSchedulerConfig(), nil)

	if err := scheduler.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	ledger, store, _ := newLedger(t)
	ctx := context.Background()
	if _, err := ledger.CreateExpense(ctx, core.Expense{
		Date:      core.NewDate(2024, 1, 1),
		Category:  "Gym",
		Amount:    core.Money{Cents: 3000},
		Recurring: true,
		Frequency: core.Weekly,
	}); err != nil {
		t.Fatal(err)
	}

	scheduler := NewScheduler(NewRecurringService(store, ledger, nil), SchedulerConfig{Interval: time.Hour, HorizonDays: 14}, nil)
	scheduler.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}

	dates, err := store.ChildDates(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 {
		t.Errorf("expected 2 materialized children, got %d", len(dates))
	}
}
