package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and form format for dates.
const DateLayout = "2006-01-02"

const (
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
	Annually Frequency = "annually"
)

const (
	IncomeSalary       IncomeType = "salary"
	IncomePhoneStipend IncomeType = "phoneStipend"
	IncomeOther        IncomeType = "otherIncome"
	IncomeTaxReturn    IncomeType = "taxReturn"
	IncomeTransfer     IncomeType = "transfer"
)

const (
	PayRegular      = "Regular"
	PayThird        = "Third"
	PayPhoneStipend = "Phone Stipend"
	PayOtherIncome  = "Other Income"
	PayTaxReturn    = "Tax Return"
	PayTransfer     = "Transfer"
)

type (
	Frequency  string
	IncomeType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Period is a pay-period boundary used to bucket transactions.
	Period struct {
		ID        int64
		Date      Date
		StartDate Date
		EndDate   Date
	}

	Expense struct {
		ID          int64
		Date        Date
		Category    string
		Description string
		Amount      Money
		Recurring   bool
		Frequency   Frequency
		Paid        bool
		ParentID    *int64
		DueDate     *Date
		CreatedAt   time.Time
	}

	// Income is the input shape of the income forms. It is stored as a Paycheck.
	Income struct {
		Date        Date
		Type        IncomeType
		Amount      Money
		Description string
		PeriodID    *int64
	}

	Paycheck struct {
		ID           int64
		Date         Date
		PayType      string
		Gross        Money
		Taxable      Money
		NonTaxable   Money
		Net          Money
		PhoneStipend bool
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrEmptyCategory     = errors.New("empty category")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidIncomeType = errors.New("invalid income type")
	ErrEmptyPayType      = errors.New("empty pay type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Contains reports whether d falls inside the inclusive period range.
func (p Period) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// Label is the header shown for the period column.
func (p Period) Label() string {
	return p.Date.Format("01/02/2006")
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := frequencySteppers[f]
	return ok
}

func (t IncomeType) Valid() bool {
	switch t {
	case IncomeSalary, IncomePhoneStipend, IncomeOther, IncomeTaxReturn, IncomeTransfer:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLength
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Recurring && !e.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	return nil
}

func (in Income) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(in.Type)) == "" {
		return ErrInvalidIncomeType
	}
	if len(in.Description) > 200 {
		return ErrDescriptionLength
	}
	return in.Amount.Validate()
}

func (p Paycheck) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.PayType) == "" {
		return ErrEmptyPayType
	}
	if err := p.Gross.Validate(); err != nil {
		return err
	}
	for _, m := range []Money{p.Taxable, p.NonTaxable, p.Net} {
		if m.Cents < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// IsValidationError reports whether err comes from one of the Validate methods.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrNegativeAmount, ErrEmptyCategory,
		ErrDescriptionLength, ErrInvalidFrequency, ErrInvalidIncomeType, ErrEmptyPayType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
