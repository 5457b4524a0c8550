package domain

import (
	"github.com/shopspring/decimal"
)

// Customer is a clinic customer as kept by the customer directory
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Ref returns the header snapshot printed on invoices
func (c *Customer) Ref() *CustomerRef {
	return &CustomerRef{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// CatalogItem is a priced entry from the inventory or the vaccination price list.
// The ledger only reads Name and SellingPrice when a line item is created.
type CatalogItem struct {
	ID           int64           `json:"id"`
	ItemType     ItemType        `json:"item_type"`
	Name         string          `json:"name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// LineItemInput is a requested line item. UnitPrice and ItemName may be left
// empty for catalog backed rows; the catalog fills them in.
type LineItemInput struct {
	ItemType  ItemType
	ItemID    *int64
	ItemName  string
	Quantity  int
	UnitPrice *decimal.Decimal
	Discount  decimal.Decimal
}

// InvoiceInput is the editable part of an invoice
type InvoiceInput struct {
	CustomerID         int64
	BillDate           DateOnly
	DueDate            *DateOnly
	Items              []LineItemInput
	DiscountPercentage decimal.Decimal
	TaxPercentage      decimal.Decimal
	Notes              string
	// InitialPayment is only honoured on creation
	InitialPayment *PaymentInput
}
