package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	periods := []byte(`[{"id":"1","date":"2024-01-01","start_date":"2024-01-01","end_date":"2024-01-15"}]`)
	expenses := []byte(`[
		{"id":7,"date":"2024-01-05T00:00:00","category":"Food","description":null,"amount":"20.00","paid":false},
		{"id":8,"date":"garbage","category":"Food","amount":3.5,"paid":"true","recurring":true,"frequency":"monthly"},
		42
	]`)

	snap := DecodeSnapshot(periods, expenses)

	require.True(t, snap.Loaded)
	require.Len(t, snap.Periods, 1)
	assert.Equal(t, int64(1), snap.Periods[0].ID)
	assert.True(t, snap.Periods[0].EndDate.Equal(NewDate(2024, 1, 15)))

	require.Len(t, snap.Expenses, 3)
	assert.Equal(t, int64(7), snap.Expenses[0].ID)
	assert.Equal(t, int64(2000), snap.Expenses[0].Amount.Cents)
	assert.True(t, snap.Expenses[0].Date.Equal(NewDate(2024, 1, 5)))
	assert.Equal(t, "", snap.Expenses[0].Description)

	assert.True(t, snap.Expenses[1].Date.IsZero())
	assert.Equal(t, int64(350), snap.Expenses[1].Amount.Cents)
	assert.True(t, snap.Expenses[1].Paid)
	assert.Equal(t, Monthly, snap.Expenses[1].Frequency)

	assert.Equal(t, Expense{}, snap.Expenses[2])
}

func TestDecodeSnapshot_MalformedInputIsEmpty(t *testing.T) {
	cases := []struct {
		name              string
		periods, expenses string
	}{
		{"object periods", `{"id":1}`, `[]`},
		{"string expenses", `[]`, `"nope"`},
		{"invalid json", `[{`, `[]`},
		{"empty", ``, ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := DecodeSnapshot([]byte(tc.periods), []byte(tc.expenses))
			assert.True(t, snap.Loaded)
			assert.Empty(t, snap.Periods)
			assert.Empty(t, snap.Expenses)

			agg := Aggregate(snap.Periods, snap.Expenses)
			assert.Equal(t, StateNoPeriods, BuildTable(&agg, TableQuery{}).State)
		})
	}
}

func TestExpenseJSONRoundTripFields(t *testing.T) {
	e := Expense{ID: 3, Date: NewDate(2024, 5, 1), Category: "Rent", Amount: Money{Cents: 150000}, Paid: true}
	j := NewExpenseJSON(e)
	assert.Equal(t, "2024-05-01", j.Date)
	assert.Equal(t, 1500.0, j.Amount)
	assert.True(t, j.Paid)
}
