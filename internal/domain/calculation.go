package domain

import (
	"fmt"

	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount carries
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MaxMoney is the largest amount a NUMERIC(12,2) column holds. Unit prices,
// discounts, payments and invoice totals are all kept at or below it.
var MaxMoney = decimal.RequireFromString("9999999999.99")

// MaxQuantity caps the quantity of a single line item
const MaxQuantity = 100000

var maxMoneyMessage = "cannot exceed " + MaxMoney.StringFixed(MoneyPlaces)

// IsMoney reports whether d has no more than two decimal places
func IsMoney(d decimal.Decimal) bool {
	return fitsPlaces(d, MoneyPlaces)
}

// fitsPlaces reports whether d has no more than places decimal places without
// ever rescaling by more digits than the coefficient carries, so an input like
// 1e-1000000000 is rejected without being expanded.
func fitsPlaces(d decimal.Decimal, places int32) bool {
	drop := -int64(places) - int64(d.Exponent())
	if drop <= 0 || d.IsZero() {
		return true
	}
	// a coefficient ending in drop zeros needs at least drop bits
	if drop > int64(d.Coefficient().BitLen()) {
		return false
	}
	return d.Equal(d.Round(places))
}

// exceedsMaxMoney reports whether a non-negative amount that already passed
// IsMoney is above MaxMoney. Anything scaled by 10^10 or more is over the cap
// and is never compared digit by digit.
func exceedsMaxMoney(d decimal.Decimal) bool {
	if d.IsZero() {
		return false
	}
	if d.Exponent() >= 10 {
		return true
	}
	return d.GreaterThan(MaxMoney)
}

// AmountProblem returns the field message for an amount that is negative, has
// more than two decimal places or is above MaxMoney, and "" for a valid one.
func AmountProblem(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "cannot be negative"
	case !IsMoney(d):
		return "cannot have more than 2 decimal places"
	case exceedsMaxMoney(d):
		return maxMoneyMessage
	}
	return ""
}

// PercentOf returns round2(amount * pct / 100)
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(pct).Div(hundred))
}

// Totals holds the derived monetary fields of an invoice
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// LineTotal computes quantity * unit_price - discount for one row
func LineTotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return RoundMoney(decimal.NewFromInt(int64(quantity)).Mul(unitPrice).Sub(discount))
}

// ComputeTotals runs the fixed-order invoice computation, rounding each derived
// field before it feeds the next one.
func ComputeTotals(items []LineItem, discountPct, taxPct decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item.Quantity, item.UnitPrice, item.Discount))
	}
	subtotal = RoundMoney(subtotal)

	discountAmount := PercentOf(subtotal, discountPct)
	taxable := RoundMoney(subtotal.Sub(discountAmount))
	taxAmount := PercentOf(taxable, taxPct)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxableAmount:  taxable,
		TaxAmount:      taxAmount,
		TotalAmount:    RoundMoney(taxable.Add(taxAmount)),
	}
}

// Recalculate refreshes line totals, invoice totals, balance and stored status
// from the items, percentages and paid amount.
func (i *Invoice) Recalculate() {
	for idx := range i.Items {
		item := &i.Items[idx]
		item.LineTotal = LineTotal(item.Quantity, item.UnitPrice, item.Discount)
	}

	t := ComputeTotals(i.Items, i.DiscountPercentage, i.TaxPercentage)
	i.Subtotal = t.Subtotal
	i.DiscountAmount = t.DiscountAmount
	i.TaxableAmount = t.TaxableAmount
	i.TaxAmount = t.TaxAmount
	i.TotalAmount = t.TotalAmount
	i.BalanceAmount = i.TotalAmount.Sub(i.PaidAmount)
	i.PaymentStatus = StatusForAmounts(i.TotalAmount, i.PaidAmount)
}

// ValidateLineItems checks every row and returns field level messages keyed
// by "items[n].field".
func ValidateLineItems(items []LineItem) map[string]any {
	details := map[string]any{}
	if len(items) == 0 {
		details["items"] = "at least one line item is required"
		return details
	}

	for idx, item := range items {
		field := func(name string) string { return LineField(idx, name) }

		switch item.ItemType {
		case ItemTypeService, ItemTypeInventoryItem, ItemTypeConsultation, ItemTypeVaccination:
		default:
			details[field("item_type")] = "must be one of: service, inventory_item, consultation, vaccination"
		}
		if item.ItemID != nil && !item.ItemType.HasCatalogSource() {
			details[field("item_id")] = "free-text items cannot reference a catalog entry"
		}
		if isBlank(item.ItemName) {
			details[field("item_name")] = "is required"
		}
		quantityOK := false
		switch {
		case item.Quantity <= 0:
			details[field("quantity")] = "must be greater than 0"
		case item.Quantity > MaxQuantity:
			details[field("quantity")] = fmt.Sprintf("cannot exceed %d", MaxQuantity)
		default:
			quantityOK = true
		}

		grossOK := false
		gross := decimal.Zero
		if msg := AmountProblem(item.UnitPrice); msg != "" {
			details[field("unit_price")] = msg
		} else if quantityOK {
			gross = decimal.NewFromInt(int64(item.Quantity)).Mul(item.UnitPrice)
			if gross.GreaterThan(MaxMoney) {
				details[field("unit_price")] = "quantity * unit_price " + maxMoneyMessage
			} else {
				grossOK = true
			}
		}

		if msg := AmountProblem(item.Discount); msg != "" {
			details[field("discount")] = msg
		} else if grossOK && item.Discount.GreaterThan(gross) {
			details[field("discount")] = "cannot exceed quantity * unit_price"
		}
	}
	return details
}

// LineField names a line item field in validation details
func LineField(idx int, name string) string {
	return fmt.Sprintf("items[%d].%s", idx, name)
}

// PercentagePlaces bounds the precision of discount and tax rates
const PercentagePlaces = 4

// ValidatePercentage checks a discount or tax percentage lies in [0,100]
func ValidatePercentage(pct decimal.Decimal) string {
	if pct.IsNegative() || (!pct.IsZero() && pct.Exponent() > 2) {
		return "must be between 0 and 100"
	}
	if !fitsPlaces(pct, PercentagePlaces) {
		return "cannot have more than 4 decimal places"
	}
	if pct.GreaterThan(hundred) {
		return "must be between 0 and 100"
	}
	return ""
}

// ValidationDetails returns field level messages for every header and line
// item constraint the invoice breaks. An empty map means the invoice is valid.
func (i *Invoice) ValidationDetails() map[string]any {
	details := ValidateLineItems(i.Items)
	if i.CustomerID <= 0 {
		details["customer_id"] = "is required"
	}
	if i.BillDate.IsZero() {
		details["bill_date"] = "is required"
	}
	if i.DueDate != nil && i.DueDate.Before(i.BillDate) {
		details["due_date"] = "cannot be before bill_date"
	}
	if msg := ValidatePercentage(i.DiscountPercentage); msg != "" {
		details["discount_percentage"] = msg
	}
	if msg := ValidatePercentage(i.TaxPercentage); msg != "" {
		details["tax_percentage"] = msg
	}
	if len(details) == 0 {
		t := ComputeTotals(i.Items, i.DiscountPercentage, i.TaxPercentage)
		if t.Subtotal.GreaterThan(MaxMoney) || t.TotalAmount.GreaterThan(MaxMoney) {
			details["total_amount"] = maxMoneyMessage
		}
	}
	return details
}

// Validate checks header and line item constraints of an invoice
func (i *Invoice) Validate() error {
	return InvalidInvoiceError(i.ValidationDetails())
}

// InvalidInvoiceError builds the validation error for details, or returns nil
// when there is nothing to report.
func InvalidInvoiceError(details map[string]any) error {
	if len(details) == 0 {
		return nil
	}
	return ierr.NewError("invalid invoice").
		WithHint("Invoice validation failed").
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}
