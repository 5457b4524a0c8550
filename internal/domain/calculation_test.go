package domain

import (
	"testing"

	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(qty int, price, discount string) LineItem {
	return LineItem{
		ItemType:  ItemTypeService,
		ItemName:  "Checkup",
		Quantity:  qty,
		UnitPrice: dec(price),
		Discount:  dec(discount),
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name        string
		items       []LineItem
		discountPct string
		taxPct      string
		want        Totals
	}{
		{
			name:        "single line with discount and tax",
			items:       []LineItem{line(2, "500.00", "0")},
			discountPct: "10",
			taxPct:      "5",
			want: Totals{
				Subtotal:       dec("1000.00"),
				DiscountAmount: dec("100.00"),
				TaxableAmount:  dec("900.00"),
				TaxAmount:      dec("45.00"),
				TotalAmount:    dec("945.00"),
			},
		},
		{
			name:        "each step rounds before the next",
			items:       []LineItem{line(3, "33.33", "0")},
			discountPct: "10",
			taxPct:      "8",
			want: Totals{
				Subtotal:       dec("99.99"),
				DiscountAmount: dec("10.00"),
				TaxableAmount:  dec("89.99"),
				TaxAmount:      dec("7.20"),
				TotalAmount:    dec("97.19"),
			},
		},
		{
			name:        "zero percentages",
			items:       []LineItem{line(1, "250.00", "0"), line(4, "12.50", "0")},
			discountPct: "0",
			taxPct:      "0",
			want: Totals{
				Subtotal:       dec("300.00"),
				DiscountAmount: dec("0"),
				TaxableAmount:  dec("300.00"),
				TaxAmount:      dec("0"),
				TotalAmount:    dec("300.00"),
			},
		},
		{
			name:        "line discounts reduce the subtotal",
			items:       []LineItem{line(2, "150.00", "50.00"), line(1, "80.00", "0")},
			discountPct: "0",
			taxPct:      "11",
			want: Totals{
				Subtotal:       dec("330.00"),
				DiscountAmount: dec("0"),
				TaxableAmount:  dec("330.00"),
				TaxAmount:      dec("36.30"),
				TotalAmount:    dec("366.30"),
			},
		},
		{
			name:        "half cent rounds away from zero",
			items:       []LineItem{line(1, "0.10", "0")},
			discountPct: "0",
			taxPct:      "5",
			want: Totals{
				Subtotal:       dec("0.10"),
				DiscountAmount: dec("0"),
				TaxableAmount:  dec("0.10"),
				TaxAmount:      dec("0.01"),
				TotalAmount:    dec("0.11"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, dec(tt.discountPct), dec(tt.taxPct))

			assert.True(t, tt.want.Subtotal.Equal(got.Subtotal), "subtotal: %s", got.Subtotal)
			assert.True(t, tt.want.DiscountAmount.Equal(got.DiscountAmount), "discount: %s", got.DiscountAmount)
			assert.True(t, tt.want.TaxableAmount.Equal(got.TaxableAmount), "taxable: %s", got.TaxableAmount)
			assert.True(t, tt.want.TaxAmount.Equal(got.TaxAmount), "tax: %s", got.TaxAmount)
			assert.True(t, tt.want.TotalAmount.Equal(got.TotalAmount), "total: %s", got.TotalAmount)
		})
	}
}

func TestRecalculateSetsBalanceAndStatus(t *testing.T) {
	inv := NewInvoice()
	inv.Items = []LineItem{line(2, "500.00", "0")}
	inv.DiscountPercentage = dec("10")
	inv.TaxPercentage = dec("5")
	inv.PaidAmount = dec("100.00")

	inv.Recalculate()

	assert.Equal(t, "1000.00", inv.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "945.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "845.00", inv.BalanceAmount.StringFixed(2))
	assert.Equal(t, PaymentStatusPartiallyPaid, inv.PaymentStatus)
}

func TestRecalculateZeroTotalIsFullyPaid(t *testing.T) {
	inv := NewInvoice()
	inv.Items = []LineItem{line(1, "0.00", "0")}

	inv.Recalculate()

	assert.True(t, inv.TotalAmount.IsZero())
	assert.Equal(t, PaymentStatusFullyPaid, inv.PaymentStatus)
}

func TestValidateLineItems(t *testing.T) {
	catalogID := int64(7)

	tests := []struct {
		name  string
		items []LineItem
		want  map[string]any
	}{
		{
			name:  "no items",
			items: nil,
			want:  map[string]any{"items": "at least one line item is required"},
		},
		{
			name:  "valid row",
			items: []LineItem{line(1, "10.00", "0")},
			want:  map[string]any{},
		},
		{
			name:  "zero quantity",
			items: []LineItem{line(0, "10.00", "0")},
			want:  map[string]any{"items[0].quantity": "must be greater than 0"},
		},
		{
			name:  "negative price",
			items: []LineItem{line(1, "-1.00", "0")},
			want:  map[string]any{"items[0].unit_price": "cannot be negative"},
		},
		{
			name:  "sub cent price",
			items: []LineItem{line(1, "1.005", "0")},
			want:  map[string]any{"items[0].unit_price": "cannot have more than 2 decimal places"},
		},
		{
			name:  "trailing zeros are still whole cents",
			items: []LineItem{line(1, "1.50000000", "0")},
			want:  map[string]any{},
		},
		{
			name:  "quantity above ceiling",
			items: []LineItem{line(MaxQuantity+1, "1.00", "0")},
			want:  map[string]any{"items[0].quantity": "cannot exceed 100000"},
		},
		{
			name:  "price above cap",
			items: []LineItem{line(1, "10000000000.00", "0")},
			want:  map[string]any{"items[0].unit_price": "cannot exceed 9999999999.99"},
		},
		{
			name:  "huge exponent price",
			items: []LineItem{line(1, "1e100000", "0")},
			want:  map[string]any{"items[0].unit_price": "cannot exceed 9999999999.99"},
		},
		{
			name:  "tiny exponent price",
			items: []LineItem{line(1, "1e-1000000000", "0")},
			want:  map[string]any{"items[0].unit_price": "cannot have more than 2 decimal places"},
		},
		{
			name:  "gross above cap",
			items: []LineItem{line(2, "5000000000.00", "0")},
			want:  map[string]any{"items[0].unit_price": "quantity * unit_price cannot exceed 9999999999.99"},
		},
		{
			name:  "huge exponent discount",
			items: []LineItem{line(1, "10.00", "1e100000")},
			want:  map[string]any{"items[0].discount": "cannot exceed 9999999999.99"},
		},
		{
			name:  "discount above gross",
			items: []LineItem{line(2, "10.00", "20.01")},
			want:  map[string]any{"items[0].discount": "cannot exceed quantity * unit_price"},
		},
		{
			name: "unknown type and missing name",
			items: []LineItem{{
				ItemType:  "grooming",
				Quantity:  1,
				UnitPrice: dec("5.00"),
			}},
			want: map[string]any{
				"items[0].item_type": "must be one of: service, inventory_item, consultation, vaccination",
				"items[0].item_name": "is required",
			},
		},
		{
			name: "free text row with catalog id",
			items: []LineItem{{
				ItemType:  ItemTypeConsultation,
				ItemID:    &catalogID,
				ItemName:  "Consultation",
				Quantity:  1,
				UnitPrice: dec("5.00"),
			}},
			want: map[string]any{"items[0].item_id": "free-text items cannot reference a catalog entry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateLineItems(tt.items))
		})
	}
}

func TestInvoiceValidate(t *testing.T) {
	billDate := NewDateOnly(mustDate(t, "2024-01-31").Time)
	earlier := mustDate(t, "2024-01-30")

	inv := NewInvoice()
	inv.CustomerID = 1
	inv.BillDate = billDate
	inv.Items = []LineItem{line(1, "10.00", "0")}
	require.NoError(t, inv.Validate())

	inv.DueDate = &earlier
	inv.DiscountPercentage = dec("100.5")
	inv.TaxPercentage = dec("5.12345")

	err := inv.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, map[string]any{
		"due_date":            "cannot be before bill_date",
		"discount_percentage": "must be between 0 and 100",
		"tax_percentage":      "cannot have more than 4 decimal places",
	}, ierr.Details(err))
}

func TestInvoiceValidateCapsTotal(t *testing.T) {
	inv := NewInvoice()
	inv.CustomerID = 1
	inv.BillDate = mustDate(t, "2024-01-31")
	inv.Items = []LineItem{line(1, "9999999999.99", "0")}
	require.NoError(t, inv.Validate())

	// each line fits on its own but the tax pushes the total over
	inv.TaxPercentage = dec("0.01")
	err := inv.Validate()
	require.Error(t, err)
	assert.Equal(t, map[string]any{"total_amount": "cannot exceed 9999999999.99"}, ierr.Details(err))

	inv.TaxPercentage = decimal.Zero
	inv.Items = append(inv.Items, line(1, "0.01", "0"))
	err = inv.Validate()
	require.Error(t, err)
	assert.Equal(t, map[string]any{"total_amount": "cannot exceed 9999999999.99"}, ierr.Details(err))
}

func TestAmountProblem(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", ""},
		{"0e100000", ""},
		{"12.30", ""},
		{"9999999999.99", ""},
		{"1.2300000000000000000000", ""},
		{"-0.01", "cannot be negative"},
		{"0.001", "cannot have more than 2 decimal places"},
		{"1e-30", "cannot have more than 2 decimal places"},
		{"1e-1000000000", "cannot have more than 2 decimal places"},
		{"10000000000.00", "cannot exceed 9999999999.99"},
		{"1e10", "cannot exceed 9999999999.99"},
		{"1e1000000000", "cannot exceed 9999999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountProblem(dec(tt.amount)))
		})
	}
}

func TestValidatePercentage(t *testing.T) {
	tests := []struct {
		pct  string
		want string
	}{
		{"0", ""},
		{"100", ""},
		{"12.3456", ""},
		{"-0.0001", "must be between 0 and 100"},
		{"100.0001", "must be between 0 and 100"},
		{"1e1000000000", "must be between 0 and 100"},
		{"1.23456", "cannot have more than 4 decimal places"},
		{"1e-1000000000", "cannot have more than 4 decimal places"},
	}

	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePercentage(dec(tt.pct)))
		})
	}
}

func TestInvalidInvoiceErrorNilWhenNoDetails(t *testing.T) {
	assert.NoError(t, InvalidInvoiceError(nil))
	assert.NoError(t, InvalidInvoiceError(map[string]any{}))
}

func mustDate(t *testing.T, s string) DateOnly {
	t.Helper()
	d, err := ParseDateOnly(s)
	require.NoError(t, err)
	return d
}
