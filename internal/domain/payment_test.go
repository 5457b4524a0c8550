package domain

import (
	"testing"
	"time"

	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clerk    = Actor{UserID: "staff-1"}
	paidTime = time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)
)

func invoiceTotalling(total string) *Invoice {
	inv := NewInvoice()
	inv.ID = 42
	inv.InvoiceNumber = "INV-20240131-0001"
	inv.Items = []LineItem{line(1, total, "0")}
	inv.Recalculate()
	return inv
}

func TestApplyPaymentProgression(t *testing.T) {
	inv := invoiceTotalling("945.00")
	require.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)

	p, err := inv.ApplyPayment(PaymentInput{Amount: dec("500.00"), PaymentMethod: PaymentMethodCash, Reference: "  R-1 "}, clerk, paidTime)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.InvoiceID)
	assert.Equal(t, "R-1", p.Reference)
	assert.Equal(t, "staff-1", p.RecordedBy)
	assert.Equal(t, paidTime, p.RecordedAt)
	assert.Equal(t, PaymentStatusPartiallyPaid, inv.PaymentStatus)
	assert.Equal(t, "445.00", inv.BalanceAmount.StringFixed(2))

	_, err = inv.ApplyPayment(PaymentInput{Amount: dec("445.00"), PaymentMethod: PaymentMethodCard}, clerk, paidTime)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusFullyPaid, inv.PaymentStatus)
	assert.True(t, inv.BalanceAmount.IsZero())
	assert.Len(t, inv.Payments, 2)
	assert.Equal(t, "945.00", inv.PaidAmount.StringFixed(2))
}

func TestApplyPaymentRejections(t *testing.T) {
	cancelledAt := paidTime

	tests := []struct {
		name    string
		prepare func(inv *Invoice)
		in      PaymentInput
		check   func(error) bool
	}{
		{
			name:  "exceeds balance",
			in:    PaymentInput{Amount: dec("100.01"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsValidation,
		},
		{
			name:  "zero amount",
			in:    PaymentInput{Amount: dec("0"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsValidation,
		},
		{
			name:  "sub cent amount",
			in:    PaymentInput{Amount: dec("10.001"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsValidation,
		},
		{
			name:  "huge exponent amount",
			in:    PaymentInput{Amount: dec("1e100000"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsValidation,
		},
		{
			name:  "tiny exponent amount",
			in:    PaymentInput{Amount: dec("1e-1000000000"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsValidation,
		},
		{
			name:  "unknown method",
			in:    PaymentInput{Amount: dec("10.00"), PaymentMethod: "cheque"},
			check: ierr.IsValidation,
		},
		{
			name:    "cancelled invoice",
			prepare: func(inv *Invoice) { inv.CancelledAt = &cancelledAt },
			in:      PaymentInput{Amount: dec("10.00"), PaymentMethod: PaymentMethodCash},
			check:   ierr.IsInvalidState,
		},
		{
			name: "already fully paid",
			prepare: func(inv *Invoice) {
				inv.PaidAmount = inv.TotalAmount
				inv.Recalculate()
			},
			in:    PaymentInput{Amount: dec("10.00"), PaymentMethod: PaymentMethodCash},
			check: ierr.IsInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := invoiceTotalling("100.00")
			if tt.prepare != nil {
				tt.prepare(inv)
			}
			paidBefore := inv.PaidAmount
			statusBefore := inv.PaymentStatus

			p, err := inv.ApplyPayment(tt.in, clerk, paidTime)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)

			assert.True(t, paidBefore.Equal(inv.PaidAmount))
			assert.Equal(t, statusBefore, inv.PaymentStatus)
			assert.Empty(t, inv.Payments)
		})
	}
}

func TestValidatePaymentInputCapsAmount(t *testing.T) {
	err := ValidatePaymentInput(PaymentInput{Amount: dec("10000000000.00"), PaymentMethod: PaymentMethodCash})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, map[string]any{"amount": "cannot exceed 9999999999.99"}, ierr.Details(err))

	assert.NoError(t, ValidatePaymentInput(PaymentInput{Amount: dec("9999999999.99"), PaymentMethod: PaymentMethodCash}))
}

func TestApplyPaymentExactBalanceAccepted(t *testing.T) {
	inv := invoiceTotalling("97.19")

	_, err := inv.ApplyPayment(PaymentInput{Amount: dec("97.19"), PaymentMethod: PaymentMethodBankTransfer, BankName: "BCA"}, clerk, paidTime)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusFullyPaid, inv.PaymentStatus)
}

func TestActorValidate(t *testing.T) {
	assert.NoError(t, clerk.Validate())
	assert.True(t, ierr.IsPermissionDenied(Actor{}.Validate()))
	assert.True(t, ierr.IsPermissionDenied(Actor{UserID: "   "}.Validate()))
}

func TestStatusForAmounts(t *testing.T) {
	assert.Equal(t, PaymentStatusUnpaid, StatusForAmounts(dec("10.00"), dec("0")))
	assert.Equal(t, PaymentStatusPartiallyPaid, StatusForAmounts(dec("10.00"), dec("0.01")))
	assert.Equal(t, PaymentStatusFullyPaid, StatusForAmounts(dec("10.00"), dec("10.00")))
	assert.Equal(t, PaymentStatusFullyPaid, StatusForAmounts(dec("0"), dec("0")))
}
