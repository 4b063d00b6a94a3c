package core

import (
	"sync"
	"testing"
)

func TestPayTypeFor(t *testing.T) {
	tests := []struct {
		in   IncomeType
		want string
	}{
		{IncomeSalary, PayRegular},
		{IncomePhoneStipend, "Phone Stipend"},
		{IncomeOther, "Other Income"},
		{IncomeTaxReturn, "Tax Return"},
		{IncomeTransfer, "Transfer"},
		{"bonus pay", "Bonus Pay"},
	}
	for _, tt := range tests {
		if got := PayTypeFor(tt.in); got != tt.want {
			t.Errorf("PayTypeFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIncomeTypeFor(t *testing.T) {
	tests := map[string]IncomeType{
		"Regular":       IncomeSalary,
		"Third":         IncomeSalary,
		"phone stipend": IncomePhoneStipend,
		"Tax Return":    IncomeTaxReturn,
		"Something":     IncomeSalary,
	}
	for in, want := range tests {
		if got := IncomeTypeFor(in); got != want {
			t.Errorf("IncomeTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPaycheckFromIncome(t *testing.T) {
	pc := PaycheckFromIncome(Income{
		Date:   NewDate(2024, 2, 9),
		Type:   IncomePhoneStipend,
		Amount: Money{Cents: 100000},
	})

	if pc.PayType != PayPhoneStipend || !pc.PhoneStipend {
		t.Fatalf("unexpected pay type %q / stipend %v", pc.PayType, pc.PhoneStipend)
	}
	if pc.Gross.Cents != 100000 || pc.Taxable.Cents != 75000 || pc.NonTaxable.Cents != 25000 || pc.Net.Cents != 85000 {
		t.Fatalf("unexpected split: %+v", pc)
	}
	if err := pc.Validate(); err != nil {
		t.Fatalf("converted paycheck invalid: %v", err)
	}
}

func TestPaycheckNet(t *testing.T) {
	got := PaycheckNet(Money{Cents: 200000}, Money{Cents: 150000})
	if got.Cents != 162500 {
		t.Fatalf("PaycheckNet = %d, want 162500", got.Cents)
	}
}

func TestPayTypeFor_Concurrent(t *testing.T) {
	tests := []struct {
		in   IncomeType
		want string
	}{
		{"bonus payment", "Bonus Payment"},
		{"side gig", "Side Gig"},
		{IncomeTransfer, "Transfer"},
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, tt := range tests {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := PayTypeFor(tt.in); got != tt.want {
					t.Errorf("PayTypeFor(%q) = %q, want %q", tt.in, got, tt.want)
				}
			}()
		}
	}
	wg.Wait()
}
