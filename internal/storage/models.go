package storage

import "database/sql"

type Expense struct {
	ID          int64
	Date        string
	Category    string
	Description string
	AmountCents int64
	Recurring   int64
	Frequency   string
	Paid        int64
	ParentID    sql.NullInt64
	DueDate     sql.NullString
	CreatedAt   int64
	UpdatedAt   int64
}

type Paycheck struct {
	ID              int64
	Date            string
	PayType         string
	GrossCents      int64
	TaxableCents    int64
	NonTaxableCents int64
	NetCents        int64
	PhoneStipend    int64
	CreatedAt       int64
}
