package core

import (
	"errors"
	"testing"
)

func TestStepperFor(t *testing.T) {
	tests := []struct {
		freq Frequency
		days int
	}{
		{Weekly, 7},
		{BiWeekly, 14},
		{Monthly, 30},
		{Annually, 365},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			s, err := StepperFor(tt.freq)
			if err != nil {
				t.Fatalf("StepperFor(%s) error = %v", tt.freq, err)
			}
			if s.Days() != tt.days {
				t.Errorf("Days() = %d, want %d", s.Days(), tt.days)
			}
			next := s.Next(NewDate(2024, 1, 1))
			if !next.Equal(NewDate(2024, 1, 1).AddDays(tt.days)) {
				t.Errorf("Next() = %s", next)
			}
		})
	}

	if _, err := StepperFor("daily"); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestParseFrequency(t *testing.T) {
	for in, want := range map[string]Frequency{
		"monthly":   Monthly,
		"Bi-Weekly": BiWeekly,
		"biweekly":  BiWeekly,
		" weekly ":  Weekly,
	} {
		got, err := ParseFrequency(in)
		if err != nil || got != want {
			t.Errorf("ParseFrequency(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFrequency("hourly"); err == nil {
		t.Error("expected error for hourly")
	}
}

func TestOccurrences(t *testing.T) {
	base := Expense{
		Date:        NewDate(2024, 1, 1),
		Category:    "Gym",
		Description: "Membership",
		Amount:      Money{Cents: 3000},
		Recurring:   true,
		Frequency:   Weekly,
	}
	existing := NewDate(2024, 1, 15)
	exists := func(d Date, category string, amount Money, description string) bool {
		return d.Equal(existing) && category == "Gym" && amount.Cents == 3000 && description == "Membership"
	}

	got, err := Occurrences(base, NewDate(2024, 1, 5), NewDate(2024, 1, 31), exists)
	if err != nil {
		t.Fatalf("Occurrences() error = %v", err)
	}
	want := []Date{NewDate(2024, 1, 8), NewDate(2024, 1, 22), NewDate(2024, 1, 29)}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, e := range got {
		if !e.Date.Equal(want[i]) {
			t.Errorf("occurrence %d date = %s, want %s", i, e.Date, want[i])
		}
		if e.Description != "Membership"+RecurringSuffix {
			t.Errorf("description = %q", e.Description)
		}
		if e.Paid {
			t.Error("generated occurrence should be unpaid")
		}
	}

	nonRecurring := base
	nonRecurring.Recurring = false
	if got, _ := Occurrences(nonRecurring, base.Date, NewDate(2024, 12, 31), nil); got != nil {
		t.Errorf("non-recurring base produced %d rows", len(got))
	}
}

func TestMaterialize(t *testing.T) {
	parent := Expense{
		ID:        9,
		Date:      NewDate(2024, 1, 1),
		Category:  "Rent",
		Amount:    Money{Cents: 100000},
		Recurring: true,
		Frequency: Monthly,
	}

	t.Run("future parent starts after parent date", func(t *testing.T) {
		got, err := Materialize(parent, nil, NewDate(2023, 12, 1), NewDate(2024, 3, 1))
		if err != nil {
			t.Fatal(err)
		}
		want := []Date{NewDate(2024, 1, 31), NewDate(2024, 3, 1)}
		if len(got) != len(want) {
			t.Fatalf("got %d rows, want %d", len(got), len(want))
		}
		for i := range want {
			if !got[i].Date.Equal(want[i]) {
				t.Errorf("row %d = %s, want %s", i, got[i].Date, want[i])
			}
			if got[i].ParentID == nil || *got[i].ParentID != 9 {
				t.Errorf("row %d missing parent id", i)
			}
			if got[i].Recurring {
				t.Errorf("row %d should not be recurring", i)
			}
		}
	})

	t.Run("past parent jumps to first future occurrence", func(t *testing.T) {
		today := NewDate(2024, 2, 10) // 40 days after parent
		got, err := Materialize(parent, []Date{NewDate(2024, 3, 31)}, today, NewDate(2024, 4, 30))
		if err != nil {
			t.Fatal(err)
		}
		want := []Date{NewDate(2024, 3, 1), NewDate(2024, 4, 30)}
		if len(got) != len(want) {
			t.Fatalf("got %d rows, want %d", len(got), len(want))
		}
		for i := range want {
			if !got[i].Date.Equal(want[i]) {
				t.Errorf("row %d = %s, want %s", i, got[i].Date, want[i])
			}
		}
	})
}
