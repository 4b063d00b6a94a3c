package core

import "strings"

// StartingBalanceKey names the persisted starting balance.
const StartingBalanceKey = "budgetStartingBalance"

// IncomeBreakdown is a period's income split by type.
type IncomeBreakdown struct {
	Salary       Money
	PhoneStipend Money
	OtherIncome  Money
	TaxReturn    Money
	Transfer     Money
}

// Add credits amount to the bucket of t.
func (b *IncomeBreakdown) Add(t IncomeType, amount Money) {
	switch t {
	case IncomePhoneStipend:
		b.PhoneStipend = b.PhoneStipend.Add(amount)
	case IncomeOther:
		b.OtherIncome = b.OtherIncome.Add(amount)
	case IncomeTaxReturn:
		b.TaxReturn = b.TaxReturn.Add(amount)
	case IncomeTransfer:
		b.Transfer = b.Transfer.Add(amount)
	default:
		b.Salary = b.Salary.Add(amount)
	}
}

func (b IncomeBreakdown) Total() Money {
	return b.Salary.Add(b.PhoneStipend).Add(b.OtherIncome).Add(b.TaxReturn).Add(b.Transfer)
}

// PeriodSummary is one column of the budget summary table.
type PeriodSummary struct {
	Period   Period
	Starting Money
	Income   IncomeBreakdown
	Expenses Money
	Net      Money
	Running  Money
}

// BucketIncome assigns each paycheck's net amount to the closest period.
func BucketIncome(periods []Period, paychecks []Paycheck) map[int64]IncomeBreakdown {
	out := make(map[int64]IncomeBreakdown, len(periods))
	for _, pc := range paychecks {
		p, ok := ClosestPeriod(periods, pc.Date)
		if !ok {
			continue
		}
		b := out[p.ID]
		b.Add(IncomeTypeFor(pc.PayType), pc.Net)
		out[p.ID] = b
	}
	return out
}

// BuildBudgetSummary computes income, expenses, net and running balance per
// period. Each period starts from the previous period's running balance.
func BuildBudgetSummary(periods []Period, income map[int64]IncomeBreakdown, agg Aggregation, starting Money) []PeriodSummary {
	out := make([]PeriodSummary, 0, len(periods))
	balance := starting
	for _, p := range periods {
		s := PeriodSummary{
			Period:   p,
			Starting: balance,
			Income:   income[p.ID],
			Expenses: agg.PeriodTotals[p.ID],
		}
		s.Net = s.Income.Total().Sub(s.Expenses)
		s.Running = s.Starting.Add(s.Net)
		balance = s.Running
		out = append(out, s)
	}
	return out
}

// ParseStartingBalance reads a stored or submitted starting balance.
// Unreadable values count as zero; negative balances are allowed.
func ParseStartingBalance(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}
	}
	return ParseAmount(s)
}
