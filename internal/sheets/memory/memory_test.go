package memory

import (
	"context"
	"testing"

	"budget/internal/core"
	"budget/internal/sheets"
)

func TestExporterRecordsRows(t *testing.T) {
	x := New()

	ref, err := x.ExportExpense(context.Background(), core.Expense{
		ID:       3,
		Date:     core.NewDate(2024, 1, 5),
		Category: "Food",
		Amount:   core.Money{Cents: 1250},
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	ref, err = x.ExportPaycheck(context.Background(), core.Paycheck{
		ID:      4,
		Date:    core.NewDate(2024, 1, 12),
		PayType: core.PayRegular,
		Gross:   core.Money{Cents: 100000},
		Net:     core.Money{Cents: 80000},
	})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	rows := x.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != sheets.KindExpense || rows[0][5] != 12.5 {
		t.Errorf("unexpected expense row: %v", rows[0])
	}
	if rows[1][0] != sheets.KindPaycheck || rows[1][3] != core.PayRegular {
		t.Errorf("unexpected paycheck row: %v", rows[1])
	}
}

func TestExporterRejectsInvalid(t *testing.T) {
	x := New()
	if _, err := x.ExportExpense(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(x.Rows()) != 0 {
		t.Fatal("invalid expense should not be recorded")
	}
}
