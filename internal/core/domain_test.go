package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{ID: 1, StartDate: NewDate(2024, 1, 1), EndDate: NewDate(2024, 1, 15)}
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 1, 1), true},
		{NewDate(2024, 1, 15), true},
		{NewDate(2024, 1, 5), true},
		{NewDate(2023, 12, 31), false},
		{NewDate(2024, 1, 16), false},
		{Date{}, false},
	}
	for _, tc := range cases {
		if got := p.Contains(tc.d); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{Date: NewDate(2024, 1, 5), Category: "Food", Amount: Money{Cents: 2000}}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"valid", func(*Expense) {}, nil},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"blank category", func(e *Expense) { e.Category = "  " }, ErrEmptyCategory},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"recurring without frequency", func(e *Expense) { e.Recurring = true }, ErrInvalidFrequency},
		{"recurring monthly", func(e *Expense) { e.Recurring = true; e.Frequency = Monthly }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPaycheckValidate(t *testing.T) {
	pc := Paycheck{Date: NewDate(2024, 3, 1), PayType: PayRegular, Gross: Money{Cents: 100000}}
	if err := pc.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	pc.Net = Money{Cents: -1}
	if err := pc.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 2, 29)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"2024-02-29"` {
		t.Fatalf("MarshalJSON = %s, %v", b, err)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil || !back.Equal(d) {
		t.Fatalf("UnmarshalJSON = %v, %v", back, err)
	}
}
