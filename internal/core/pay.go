package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Shares applied when an income entry is stored as a paycheck.
const (
	IncomeTaxablePct    = 75
	IncomeNonTaxablePct = 25
	IncomeNetPct        = 85
	// PaycheckTaxPct is withheld from the taxable part of a manual paycheck.
	PaycheckTaxPct = 25
)

var payTypeByIncome = map[IncomeType]string{
	IncomeSalary:       PayRegular,
	IncomePhoneStipend: PayPhoneStipend,
	IncomeOther:        PayOtherIncome,
	IncomeTaxReturn:    PayTaxReturn,
	IncomeTransfer:     PayTransfer,
}

// PayTypeFor maps an income type to the stored pay type. Unknown types are
// title-cased.
func PayTypeFor(t IncomeType) string {
	if p, ok := payTypeByIncome[t]; ok {
		return p
	}
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.TrimSpace(string(t)))
}

// IncomeTypeFor buckets a stored pay type. Regular, Third and anything
// unrecognised count as salary.
func IncomeTypeFor(payType string) IncomeType {
	for t, p := range payTypeByIncome {
		if strings.EqualFold(p, payType) {
			return t
		}
	}
	return IncomeSalary
}

// PaycheckFromIncome converts an income entry into the stored paycheck.
func PaycheckFromIncome(in Income) Paycheck {
	return Paycheck{
		Date:         in.Date,
		PayType:      PayTypeFor(in.Type),
		Gross:        in.Amount,
		Taxable:      in.Amount.Percent(IncomeTaxablePct),
		NonTaxable:   in.Amount.Percent(IncomeNonTaxablePct),
		Net:          in.Amount.Percent(IncomeNetPct),
		PhoneStipend: in.Type == IncomePhoneStipend,
	}
}

// PaycheckNet is the simplified net of a manually entered paycheck.
func PaycheckNet(gross, taxable Money) Money {
	return gross.Sub(taxable.Percent(PaycheckTaxPct))
}
