package model

import (
	"strings"
	"time"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/shopspring/decimal"
)

// Money and percentages arrive as JSON strings or numbers and are decoded
// straight into decimals, never through float64.

// LineItemRequest represents a single requested line item
type LineItemRequest struct {
	ItemType  string           `json:"item_type" validate:"required,oneof=service inventory_item consultation vaccination" example:"vaccination"`
	ItemID    *int64           `json:"item_id,omitempty" validate:"omitempty,gt=0" example:"3"`
	ItemName  string           `json:"item_name" validate:"max=255" example:"Rabies vaccine"`
	Quantity  int              `json:"quantity" validate:"required,gt=0" example:"1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" swaggertype:"string" example:"500.00"`
	Discount  decimal.Decimal  `json:"discount" validate:"gte=0" swaggertype:"string" example:"0.00"`
}

// CreateInvoiceRequest is the body of POST /v1/invoices. The payment fields
// record an initial payment together with the invoice.
type CreateInvoiceRequest struct {
	CustomerID         int64             `json:"customer_id" validate:"required,gt=0" example:"1"`
	BillDate           string            `json:"bill_date" validate:"required,datetime=2006-01-02" example:"2024-01-31"`
	DueDate            string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2024-02-14"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage" validate:"gte=0,lte=100" swaggertype:"string" example:"10"`
	TaxPercentage      decimal.Decimal   `json:"tax_percentage" validate:"gte=0,lte=100" swaggertype:"string" example:"5"`
	Notes              string            `json:"notes,omitempty" validate:"max=2000"`
	Items              []LineItemRequest `json:"items" validate:"required,min=1,dive"`

	PaidAmount       *decimal.Decimal `json:"paid_amount,omitempty" swaggertype:"string" example:"100.00"`
	PaymentMethod    string           `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card bank_transfer mobile_payment insurance" example:"cash"`
	PaymentReference string           `json:"payment_reference,omitempty" validate:"max=255"`
	CardType         string           `json:"card_type,omitempty" validate:"max=50"`
	BankName         string           `json:"bank_name,omitempty" validate:"max=100"`
}

// UpdateInvoiceRequest is the body of PUT /v1/invoices/{invoiceId}
type UpdateInvoiceRequest struct {
	CustomerID         int64             `json:"customer_id" validate:"required,gt=0" example:"1"`
	BillDate           string            `json:"bill_date" validate:"required,datetime=2006-01-02" example:"2024-01-31"`
	DueDate            string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2024-02-14"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage" validate:"gte=0,lte=100" swaggertype:"string" example:"10"`
	TaxPercentage      decimal.Decimal   `json:"tax_percentage" validate:"gte=0,lte=100" swaggertype:"string" example:"5"`
	Notes              string            `json:"notes,omitempty" validate:"max=2000"`
	Items              []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RecordPaymentRequest is the body of POST /v1/invoices/{invoiceId}/payments
type RecordPaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" validate:"gt=0" swaggertype:"string" example:"945.00"`
	PaymentMethod    string          `json:"payment_method" validate:"required,oneof=cash card bank_transfer mobile_payment insurance" example:"card"`
	PaymentReference string          `json:"payment_reference,omitempty" validate:"max=255"`
	CardType         string          `json:"card_type,omitempty" validate:"max=50" example:"visa"`
	BankName         string          `json:"bank_name,omitempty" validate:"max=100"`
	Notes            string          `json:"notes,omitempty" validate:"max=2000"`
}

// CancelInvoiceRequest is the body of POST /v1/invoices/{invoiceId}/cancel
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,max=500" example:"Duplicate invoice"`
}

// ListInvoicesQuery holds the query parameters of GET /v1/invoices
type ListInvoicesQuery struct {
	Search        string `form:"search" json:"search"`
	PaymentStatus string `form:"payment_status" json:"payment_status" validate:"omitempty,oneof=unpaid partially_paid fully_paid overdue"`
	CustomerID    *int64 `form:"customer_id" json:"customer_id" validate:"omitempty,gt=0"`
	Page          int    `form:"page" json:"page" validate:"omitempty,gt=0"`
	Limit         int    `form:"limit" json:"limit" validate:"omitempty,gt=0,lte=100"`
}

// ToFilter converts the query to a domain filter
func (q *ListInvoicesQuery) ToFilter() domain.InvoiceFilter {
	return domain.InvoiceFilter{
		Search:        strings.TrimSpace(q.Search),
		PaymentStatus: domain.PaymentStatus(q.PaymentStatus),
		CustomerID:    q.CustomerID,
		Page:          q.Page,
		Limit:         q.Limit,
	}
}

// ToInput converts the request to ledger input
func (r *CreateInvoiceRequest) ToInput() (domain.InvoiceInput, error) {
	in, err := invoiceInput(r.CustomerID, r.BillDate, r.DueDate, r.DiscountPercentage, r.TaxPercentage, r.Notes, r.Items)
	if err != nil {
		return in, err
	}

	if r.PaidAmount != nil && !r.PaidAmount.IsZero() {
		in.InitialPayment = &domain.PaymentInput{
			Amount:        *r.PaidAmount,
			PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
			Reference:     r.PaymentReference,
			CardType:      r.CardType,
			BankName:      r.BankName,
		}
	}
	return in, nil
}

// ToInput converts the request to ledger input
func (r *UpdateInvoiceRequest) ToInput() (domain.InvoiceInput, error) {
	return invoiceInput(r.CustomerID, r.BillDate, r.DueDate, r.DiscountPercentage, r.TaxPercentage, r.Notes, r.Items)
}

// ToInput converts the request to ledger input
func (r *RecordPaymentRequest) ToInput() domain.PaymentInput {
	return domain.PaymentInput{
		Amount:        r.Amount,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Reference:     r.PaymentReference,
		Notes:         r.Notes,
		CardType:      r.CardType,
		BankName:      r.BankName,
	}
}

func invoiceInput(
	customerID int64,
	billDate, dueDate string,
	discountPct, taxPct decimal.Decimal,
	notes string,
	items []LineItemRequest,
) (domain.InvoiceInput, error) {
	in := domain.InvoiceInput{
		CustomerID:         customerID,
		DiscountPercentage: discountPct,
		TaxPercentage:      taxPct,
		Notes:              notes,
		Items:              make([]domain.LineItemInput, len(items)),
	}

	bd, err := domain.ParseDateOnly(billDate)
	if err != nil {
		return in, dateError(err, "bill_date")
	}
	in.BillDate = bd

	if dueDate != "" {
		dd, err := domain.ParseDateOnly(dueDate)
		if err != nil {
			return in, dateError(err, "due_date")
		}
		in.DueDate = &dd
	}

	for i, item := range items {
		in.Items[i] = domain.LineItemInput{
			ItemType:  domain.ItemType(item.ItemType),
			ItemID:    item.ItemID,
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		}
	}
	return in, nil
}

func dateError(err error, field string) error {
	return ierr.WithError(err).
		WithHint("Request validation failed").
		WithReportableDetails(map[string]any{field: "must be a date in YYYY-MM-DD format"}).
		Mark(ierr.ErrValidation)
}

// CustomerResponse is the customer header printed on an invoice
type CustomerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// LineItemResponse represents a single invoice line
type LineItemResponse struct {
	ID        int64  `json:"id"`
	ItemType  string `json:"item_type"`
	ItemID    *int64 `json:"item_id,omitempty"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price" example:"500.00"`
	Discount  string `json:"discount" example:"0.00"`
	LineTotal string `json:"line_total" example:"1000.00"`
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID               int64  `json:"id"`
	Amount           string `json:"amount" example:"945.00"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Notes            string `json:"notes,omitempty"`
	CardType         string `json:"card_type,omitempty"`
	BankName         string `json:"bank_name,omitempty"`
	RecordedAt       string `json:"recorded_at"`
	RecordedBy       string `json:"recorded_by"`
}

// InvoiceResponse represents the response for a single invoice
type InvoiceResponse struct {
	ID                 int64              `json:"id"`
	InvoiceNumber      string             `json:"invoice_number" example:"INV-20240131-0001"`
	CustomerID         int64              `json:"customer_id"`
	Customer           *CustomerResponse  `json:"customer,omitempty"`
	BillDate           string             `json:"bill_date" example:"2024-01-31"`
	DueDate            *string            `json:"due_date,omitempty" example:"2024-02-14"`
	Items              []LineItemResponse `json:"items"`
	DiscountPercentage string             `json:"discount_percentage" example:"10"`
	TaxPercentage      string             `json:"tax_percentage" example:"5"`
	Notes              string             `json:"notes,omitempty"`
	Subtotal           string             `json:"subtotal" example:"1000.00"`
	DiscountAmount     string             `json:"discount_amount" example:"100.00"`
	TaxableAmount      string             `json:"taxable_amount" example:"900.00"`
	TaxAmount          string             `json:"tax_amount" example:"45.00"`
	TotalAmount        string             `json:"total_amount" example:"945.00"`
	PaidAmount         string             `json:"paid_amount" example:"0.00"`
	BalanceAmount      string             `json:"balance_amount" example:"945.00"`
	PaymentStatus      string             `json:"payment_status" example:"unpaid"`
	Payments           []PaymentResponse  `json:"payments"`
	Cancelled          bool               `json:"cancelled"`
	CancelledAt        *string            `json:"cancelled_at,omitempty"`
	CancelledBy        string             `json:"cancelled_by,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CreatedBy          string             `json:"created_by"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

// InvoicesListResponse represents a paginated list of invoices
type InvoicesListResponse struct {
	Data       []InvoiceResponse  `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// OverdueInvoicesResponse lists the invoices overdue as of the request
type OverdueInvoicesResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Count int               `json:"count"`
}

// SummaryResponse represents the invoice dashboard aggregates
type SummaryResponse struct {
	InvoiceCount       int    `json:"invoice_count"`
	TotalBilled        string `json:"total_billed" example:"12500.00"`
	TotalCollected     string `json:"total_collected" example:"9800.00"`
	TotalOutstanding   string `json:"total_outstanding" example:"2700.00"`
	UnpaidCount        int    `json:"unpaid_count"`
	PartiallyPaidCount int    `json:"partially_paid_count"`
	FullyPaidCount     int    `json:"fully_paid_count"`
	OverdueCount       int    `json:"overdue_count"`
}

// FromDomain converts a domain Invoice to an InvoiceResponse
func (r *InvoiceResponse) FromDomain(inv *domain.Invoice) {
	r.ID = inv.ID
	r.InvoiceNumber = inv.InvoiceNumber
	r.CustomerID = inv.CustomerID
	if inv.Customer != nil {
		r.Customer = &CustomerResponse{
			ID:    inv.Customer.ID,
			Name:  inv.Customer.Name,
			Email: inv.Customer.Email,
			Phone: inv.Customer.Phone,
		}
	}
	r.BillDate = inv.BillDate.String()
	if inv.DueDate != nil {
		d := inv.DueDate.String()
		r.DueDate = &d
	}
	r.DiscountPercentage = inv.DiscountPercentage.String()
	r.TaxPercentage = inv.TaxPercentage.String()
	r.Notes = inv.Notes
	r.Subtotal = formatMoney(inv.Subtotal)
	r.DiscountAmount = formatMoney(inv.DiscountAmount)
	r.TaxableAmount = formatMoney(inv.TaxableAmount)
	r.TaxAmount = formatMoney(inv.TaxAmount)
	r.TotalAmount = formatMoney(inv.TotalAmount)
	r.PaidAmount = formatMoney(inv.PaidAmount)
	r.BalanceAmount = formatMoney(inv.BalanceAmount)
	r.PaymentStatus = string(inv.PaymentStatus)
	r.Cancelled = inv.IsCancelled()
	if inv.CancelledAt != nil {
		t := formatTime(*inv.CancelledAt)
		r.CancelledAt = &t
	}
	r.CancelledBy = inv.CancelledBy
	r.CancellationReason = inv.CancellationReason
	r.CreatedBy = inv.CreatedBy
	r.CreatedAt = formatTime(inv.CreatedAt)
	r.UpdatedAt = formatTime(inv.UpdatedAt)

	r.Items = make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		r.Items[i] = LineItemResponse{
			ID:        item.ID,
			ItemType:  string(item.ItemType),
			ItemID:    item.ItemID,
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: formatMoney(item.UnitPrice),
			Discount:  formatMoney(item.Discount),
			LineTotal: formatMoney(item.LineTotal),
		}
	}

	r.Payments = make([]PaymentResponse, len(inv.Payments))
	for i, p := range inv.Payments {
		r.Payments[i] = PaymentResponse{
			ID:               p.ID,
			Amount:           formatMoney(p.Amount),
			PaymentMethod:    string(p.PaymentMethod),
			PaymentReference: p.Reference,
			Notes:            p.Notes,
			CardType:         p.CardType,
			BankName:         p.BankName,
			RecordedAt:       formatTime(p.RecordedAt),
			RecordedBy:       p.RecordedBy,
		}
	}
}

// NewInvoiceResponse converts a domain Invoice to its wire form
func NewInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	var r InvoiceResponse
	r.FromDomain(inv)
	return r
}

// NewInvoiceResponses converts a list of domain invoices
func NewInvoiceResponses(invoices []domain.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = NewInvoiceResponse(&invoices[i])
	}
	return out
}

// FromDomain converts domain aggregates to a SummaryResponse
func (r *SummaryResponse) FromDomain(s *domain.InvoiceSummary) {
	r.InvoiceCount = s.InvoiceCount
	r.TotalBilled = formatMoney(s.TotalBilled)
	r.TotalCollected = formatMoney(s.TotalCollected)
	r.TotalOutstanding = formatMoney(s.TotalOutstanding)
	r.UnpaidCount = s.UnpaidCount
	r.PartiallyPaidCount = s.PartiallyPaid
	r.FullyPaidCount = s.FullyPaidCount
	r.OverdueCount = s.OverdueCount
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
