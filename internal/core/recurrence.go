// This file implements the Strategy Pattern for stepping recurring expenses.
// Each frequency has its own stepper that encapsulates how the next
// occurrence date is computed.

package core

import (
	"fmt"
	"strings"
)

// RecurringSuffix is appended to the description of generated occurrences.
const RecurringSuffix = " (Recurring)"

// MaterializeHorizonDays bounds how far ahead recurring expenses are materialized.
const MaterializeHorizonDays = 180

// Stepper is the strategy interface for advancing a recurring expense.
type Stepper interface {
	// Next returns the occurrence after d.
	Next(d Date) Date
	// Days is the fixed distance between occurrences.
	Days() int
}

// FixedDays steps by a constant number of days.
type FixedDays int

func (f FixedDays) Next(d Date) Date { return d.AddDays(int(f)) }
func (f FixedDays) Days() int        { return int(f) }

var frequencySteppers = map[Frequency]Stepper{
	Weekly:   FixedDays(7),
	BiWeekly: FixedDays(14),
	Monthly:  FixedDays(30),
	Annually: FixedDays(365),
}

// StepperFor returns the stepper registered for a frequency.
func StepperFor(f Frequency) (Stepper, error) {
	s, ok := frequencySteppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
	return s, nil
}

// RegisterStepper adds or replaces the stepper for a frequency.
func RegisterStepper(f Frequency, s Stepper) {
	frequencySteppers[f] = s
}

// ParseFrequency normalizes user input ("Bi-Weekly", "biweekly") to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "biweekly" {
		s = string(BiWeekly)
	}
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// ExistsFunc reports whether an expense matching date, category, amount and
// description is already stored.
type ExistsFunc func(date Date, category string, amount Money, description string) bool

// Occurrences expands a recurring base expense into the dates within
// [from, to], starting at the base date. Matches reported by exists are
// skipped. Generated rows are unpaid and carry the recurring suffix.
func Occurrences(base Expense, from, to Date, exists ExistsFunc) ([]Expense, error) {
	if !base.Recurring {
		return nil, nil
	}
	step, err := StepperFor(base.Frequency)
	if err != nil {
		return nil, err
	}

	var out []Expense
	for d := base.Date; !d.After(to); d = step.Next(d) {
		if d.Before(from) {
			continue
		}
		if exists != nil && exists(d, base.Category, base.Amount, base.Description) {
			continue
		}
		out = append(out, Expense{
			Date:        d,
			Category:    base.Category,
			Description: base.Description + RecurringSuffix,
			Amount:      base.Amount,
			Recurring:   true,
			Frequency:   base.Frequency,
			Paid:        false,
			DueDate:     base.DueDate,
		})
	}
	return out, nil
}

// Materialize creates child rows of a recurring parent up to horizon. It
// starts at the occurrence after the parent date, or at the first occurrence
// after today when the parent lies in the past. Dates in existing (already
// materialized children) and the parent's own date are skipped.
func Materialize(parent Expense, existing []Date, today, horizon Date) ([]Expense, error) {
	if !parent.Recurring {
		return nil, nil
	}
	step, err := StepperFor(parent.Frequency)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing)+1)
	for _, d := range existing {
		seen[d.String()] = struct{}{}
	}
	seen[parent.Date.String()] = struct{}{}

	first := step.Next(parent.Date)
	if parent.Date.Before(today) {
		passed := parent.Date.DaysUntil(today)/step.Days() + 1
		first = parent.Date.AddDays(passed * step.Days())
	}

	id := parent.ID
	var out []Expense
	for d := first; !d.After(horizon); d = step.Next(d) {
		if _, ok := seen[d.String()]; ok {
			continue
		}
		out = append(out, Expense{
			Date:        d,
			Category:    parent.Category,
			Description: parent.Description,
			Amount:      parent.Amount,
			Paid:        false,
			ParentID:    &id,
			DueDate:     parent.DueDate,
		})
	}
	return out, nil
}
