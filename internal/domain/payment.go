package domain

import (
	"strings"
	"time"

	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how money was received
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodInsurance     PaymentMethod = "insurance"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodMobilePayment,
	PaymentMethodInsurance,
}

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return lo.Contains(paymentMethods, m)
}

// Payment is an immutable record of money received against an invoice
type Payment struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Reference     string          `json:"payment_reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CardType      string          `json:"card_type,omitempty"`
	BankName      string          `json:"bank_name,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
	RecordedBy    string          `json:"recorded_by"`
}

// PaymentInput carries a payment request before it is accepted
type PaymentInput struct {
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	Reference     string
	Notes         string
	CardType      string
	BankName      string
}

// Actor identifies the authenticated user a ledger call is made for
type Actor struct {
	UserID string
}

// Validate rejects anonymous callers
func (a Actor) Validate() error {
	if isBlank(a.UserID) {
		return ierr.NewError("missing actor").
			WithHint("An authenticated user is required").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

// StatusForAmounts derives the stored status from total and paid amounts.
// An invoice that owes nothing is fully paid.
func StatusForAmounts(total, paid decimal.Decimal) PaymentStatus {
	balance := total.Sub(paid)
	switch {
	case !balance.IsPositive():
		return PaymentStatusFullyPaid
	case paid.IsPositive():
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// ValidatePaymentInput checks the request shape independent of invoice state
func ValidatePaymentInput(in PaymentInput) error {
	details := map[string]any{}
	if !in.Amount.IsPositive() {
		details["amount"] = "must be greater than 0"
	} else if msg := AmountProblem(in.Amount); msg != "" {
		details["amount"] = msg
	}
	if !in.PaymentMethod.IsValid() {
		details["payment_method"] = "must be one of: cash, card, bank_transfer, mobile_payment, insurance"
	}
	if len(details) > 0 {
		return ierr.NewError("invalid payment").
			WithHint("Payment validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ApplyPayment validates in against the invoice's current state and, when it
// is acceptable, appends the payment and moves the status forward. The invoice
// is left untouched on error.
func (i *Invoice) ApplyPayment(in PaymentInput, actor Actor, at time.Time) (*Payment, error) {
	if i.IsCancelled() {
		return nil, ierr.NewError("invoice cancelled").
			WithHintf("Invoice %s is cancelled and cannot accept payments", i.InvoiceNumber).
			Mark(ierr.ErrInvalidState)
	}
	if i.PaymentStatus == PaymentStatusFullyPaid {
		return nil, ierr.NewError("invoice already paid").
			WithHintf("Invoice %s is already fully paid", i.InvoiceNumber).
			Mark(ierr.ErrInvalidState)
	}
	if err := ValidatePaymentInput(in); err != nil {
		return nil, err
	}
	if in.Amount.GreaterThan(i.BalanceAmount) {
		return nil, ierr.NewError("payment exceeds balance").
			WithHintf("Payment amount %s exceeds the outstanding balance of %s",
				in.Amount.StringFixed(MoneyPlaces), i.BalanceAmount.StringFixed(MoneyPlaces)).
			WithReportableDetails(map[string]any{
				"amount": "cannot exceed balance " + i.BalanceAmount.StringFixed(MoneyPlaces),
			}).
			Mark(ierr.ErrValidation)
	}

	p := Payment{
		InvoiceID:     i.ID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     strings.TrimSpace(in.Reference),
		Notes:         strings.TrimSpace(in.Notes),
		CardType:      strings.TrimSpace(in.CardType),
		BankName:      strings.TrimSpace(in.BankName),
		RecordedAt:    at,
		RecordedBy:    actor.UserID,
	}

	i.PaidAmount = i.PaidAmount.Add(p.Amount)
	i.BalanceAmount = i.TotalAmount.Sub(i.PaidAmount)
	i.PaymentStatus = StatusForAmounts(i.TotalAmount, i.PaidAmount)
	i.Payments = append(i.Payments, p)
	i.UpdatedAt = at

	return &i.Payments[len(i.Payments)-1], nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
