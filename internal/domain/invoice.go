package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DateOnly is a calendar date without time of day, exchanged as "YYYY-MM-DD"
type DateOnly struct {
	time.Time
}

// NewDateOnly truncates t to its calendar date in t's location and stores it as UTC midnight.
func NewDateOnly(t time.Time) DateOnly {
	y, m, d := t.Date()
	return DateOnly{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDateOnly parses a "YYYY-MM-DD" string
func ParseDateOnly(s string) (DateOnly, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateOnly{}, err
	}
	return DateOnly{Time: t}, nil
}

// UnmarshalJSON implements custom unmarshaling for date-only strings
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements custom marshaling for date-only strings
func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d DateOnly) String() string {
	return d.Time.Format(dateLayout)
}

// Before reports whether d is an earlier calendar date than other
func (d DateOnly) Before(other DateOnly) bool {
	return d.Time.Before(other.Time)
}

// ItemType classifies a line item by its catalog source
type ItemType string

const (
	ItemTypeService       ItemType = "service"
	ItemTypeInventoryItem ItemType = "inventory_item"
	ItemTypeConsultation  ItemType = "consultation"
	ItemTypeVaccination   ItemType = "vaccination"
)

// HasCatalogSource reports whether rows of this type reference a catalog entity
func (t ItemType) HasCatalogSource() bool {
	return t == ItemTypeInventoryItem || t == ItemTypeVaccination
}

// PaymentStatus is the payment state of an invoice. Only unpaid, partially_paid
// and fully_paid are ever stored; overdue is derived when the invoice is read.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusFullyPaid     PaymentStatus = "fully_paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
)

// LineItem represents a single priced entry on an invoice
type LineItem struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	ItemType  ItemType        `json:"item_type"`
	ItemID    *int64          `json:"item_id,omitempty"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CustomerRef is the read-only header data supplied by the customer directory
type CustomerRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Invoice is a bill issued to a customer. Money fields below Items are derived
// and always recomputed by the ledger.
type Invoice struct {
	ID                 int64           `json:"id"`
	InvoiceNumber      string          `json:"invoice_number"`
	CustomerID         int64           `json:"customer_id"`
	Customer           *CustomerRef    `json:"customer,omitempty"`
	BillDate           DateOnly        `json:"bill_date"`
	DueDate            *DateOnly       `json:"due_date,omitempty"`
	Items              []LineItem      `json:"items"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	Notes              string          `json:"notes,omitempty"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	Payments      []Payment     `json:"payments"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInvoice creates a new invoice with default values
func NewInvoice() *Invoice {
	return &Invoice{
		Items:         make([]LineItem, 0),
		Payments:      make([]Payment, 0),
		PaymentStatus: PaymentStatusUnpaid,
	}
}

// IsCancelled reports whether the invoice has been cancelled
func (i *Invoice) IsCancelled() bool {
	return i.CancelledAt != nil
}

// HasPayments reports whether any payment has been recorded
func (i *Invoice) HasPayments() bool {
	return len(i.Payments) > 0 || i.PaidAmount.IsPositive()
}

// CanEdit reports whether header and line items may still change
func (i *Invoice) CanEdit() bool {
	return !i.IsCancelled() && !i.HasPayments()
}

// IsOverdue applies the read-time overdue rule for the given calendar day
func (i *Invoice) IsOverdue(today DateOnly) bool {
	if i.IsCancelled() || i.PaymentStatus == PaymentStatusFullyPaid || i.DueDate == nil {
		return false
	}
	return i.DueDate.Before(today)
}

// StatusOn returns the status a reader sees on the given day: the stored
// status, or overdue when the overdue rule holds.
func (i *Invoice) StatusOn(today DateOnly) PaymentStatus {
	if i.IsOverdue(today) {
		return PaymentStatusOverdue
	}
	return i.PaymentStatus
}

// InvoiceFilter represents filters for querying invoices
type InvoiceFilter struct {
	Search        string
	PaymentStatus PaymentStatus
	CustomerID    *int64
	// Today is the calendar day used when PaymentStatus is overdue
	Today DateOnly
	Page  int
	Limit int
}

// Pagination represents pagination metadata
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// PaginatedInvoices represents a paginated list of invoices
type PaginatedInvoices struct {
	Data       []Invoice  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// InvoiceSummary aggregates amounts across non-cancelled invoices
type InvoiceSummary struct {
	InvoiceCount     int             `json:"invoice_count"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	UnpaidCount      int             `json:"unpaid_count"`
	PartiallyPaid    int             `json:"partially_paid_count"`
	FullyPaidCount   int             `json:"fully_paid_count"`
	OverdueCount     int             `json:"overdue_count"`
}
