package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Snapshot is the read-only data set a budget view is rendered from.
type Snapshot struct {
	Periods  []Period
	Expenses []Expense
	// Loaded is false until a data source has been applied.
	Loaded bool
}

// PeriodJSON is the wire shape of a period.
type PeriodJSON struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ExpenseJSON is the wire shape of an expense.
type ExpenseJSON struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Recurring   bool    `json:"recurring"`
	Frequency   string  `json:"frequency,omitempty"`
	Paid        bool    `json:"paid"`
}

// NewPeriodJSON converts a period for the data bridge.
func NewPeriodJSON(p Period) PeriodJSON {
	return PeriodJSON{ID: p.ID, Date: p.Date.String(), StartDate: p.StartDate.String(), EndDate: p.EndDate.String()}
}

// NewExpenseJSON converts an expense for the data bridge.
func NewExpenseJSON(e Expense) ExpenseJSON {
	return ExpenseJSON{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount.Float(),
		Recurring:   e.Recurring,
		Frequency:   string(e.Frequency),
		Paid:        e.Paid,
	}
}

// DecodeSnapshot decodes externally supplied period and expense arrays.
// Input that is not a JSON array yields an empty loaded snapshot; bad fields
// inside a row are coerced instead of failing the whole decode.
func DecodeSnapshot(periodsJSON, expensesJSON []byte) Snapshot {
	snap := Snapshot{Loaded: true}

	periods, ok := decodeArray(periodsJSON)
	if !ok {
		return snap
	}
	expenses, ok := decodeArray(expensesJSON)
	if !ok {
		return snap
	}

	for _, raw := range periods {
		snap.Periods = append(snap.Periods, Period{
			ID:        looseInt(raw["id"]),
			Date:      looseDate(raw["date"]),
			StartDate: looseDate(raw["start_date"]),
			EndDate:   looseDate(raw["end_date"]),
		})
	}
	for _, raw := range expenses {
		snap.Expenses = append(snap.Expenses, Expense{
			ID:          looseInt(raw["id"]),
			Date:        looseDate(raw["date"]),
			Category:    looseString(raw["category"]),
			Description: looseString(raw["description"]),
			Amount:      looseAmount(raw["amount"]),
			Recurring:   looseBool(raw["recurring"]),
			Frequency:   Frequency(looseString(raw["frequency"])),
			Paid:        looseBool(raw["paid"]),
		})
	}
	return snap
}

func decodeArray(b []byte) ([]map[string]json.RawMessage, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			obj = map[string]json.RawMessage{}
		}
		out = append(out, obj)
	}
	return out, true
}

func looseScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func looseString(raw json.RawMessage) string {
	return strings.TrimSpace(looseScalar(raw))
}

func looseInt(raw json.RawMessage) int64 {
	n, err := strconv.ParseInt(looseString(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func looseBool(raw json.RawMessage) bool {
	switch strings.ToLower(looseString(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func looseAmount(raw json.RawMessage) Money {
	return ParseAmount(looseString(raw))
}

func looseDate(raw json.RawMessage) Date {
	s := looseString(raw)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}
