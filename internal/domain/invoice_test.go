package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnlyJSON(t *testing.T) {
	var d DateOnly
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &d))
	assert.Equal(t, "2024-02-29", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-02-29"`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"29/02/2024"`), &d))
}

func TestNewDateOnlyUsesLocalCalendarDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 2024-01-31 20:00 UTC is already Feb 1 in Jakarta
	instant := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-31", NewDateOnly(instant).String())
	assert.Equal(t, "2024-02-01", NewDateOnly(instant.In(jakarta)).String())
}

func TestStatusOn(t *testing.T) {
	due := mustDate(t, "2024-02-14")
	cancelledAt := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status PaymentStatus
		due    *DateOnly
		cancel *time.Time
		today  string
		want   PaymentStatus
	}{
		{name: "before due date", status: PaymentStatusUnpaid, due: &due, today: "2024-02-13", want: PaymentStatusUnpaid},
		{name: "on due date", status: PaymentStatusUnpaid, due: &due, today: "2024-02-14", want: PaymentStatusUnpaid},
		{name: "day after due date", status: PaymentStatusUnpaid, due: &due, today: "2024-02-15", want: PaymentStatusOverdue},
		{name: "partially paid past due", status: PaymentStatusPartiallyPaid, due: &due, today: "2024-03-01", want: PaymentStatusOverdue},
		{name: "fully paid never overdue", status: PaymentStatusFullyPaid, due: &due, today: "2024-03-01", want: PaymentStatusFullyPaid},
		{name: "no due date", status: PaymentStatusUnpaid, today: "2030-01-01", want: PaymentStatusUnpaid},
		{name: "cancelled never overdue", status: PaymentStatusUnpaid, due: &due, cancel: &cancelledAt, today: "2024-03-01", want: PaymentStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := NewInvoice()
			inv.PaymentStatus = tt.status
			inv.DueDate = tt.due
			inv.CancelledAt = tt.cancel

			assert.Equal(t, tt.want, inv.StatusOn(mustDate(t, tt.today)))
		})
	}
}

func TestCanEdit(t *testing.T) {
	inv := NewInvoice()
	assert.True(t, inv.CanEdit())

	inv.Payments = append(inv.Payments, Payment{Amount: dec("1.00")})
	assert.False(t, inv.CanEdit())

	cancelled := NewInvoice()
	now := time.Now()
	cancelled.CancelledAt = &now
	assert.False(t, cancelled.CanEdit())
}
