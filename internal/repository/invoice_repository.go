package repository

import (
	"context"
	"math"
	"strings"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
)

// InvoiceRepository defines the interface for invoice ledger storage
type InvoiceRepository interface {
	// WithTx runs fn inside one database transaction. Everything fn does through
	// tx is committed together or rolled back together.
	WithTx(ctx context.Context, fn func(tx InvoiceTx) error) error

	// GetInvoiceByID retrieves an invoice with its items and payments
	GetInvoiceByID(ctx context.Context, id int64) (*domain.Invoice, error)

	// ListInvoices retrieves invoices matching the filter, newest bill first
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)

	// ListOverdueInvoices retrieves open invoices whose due date is before today
	ListOverdueInvoices(ctx context.Context, today domain.DateOnly) ([]domain.Invoice, error)

	// GetSummary aggregates the non-cancelled invoices
	GetSummary(ctx context.Context, today domain.DateOnly) (*domain.InvoiceSummary, error)
}

// InvoiceTx is the set of writes available inside an invoice transaction
type InvoiceTx interface {
	// LastInvoiceNumber returns the highest invoice number starting with prefix, or ""
	LastInvoiceNumber(ctx context.Context, prefix string) (string, error)

	// InsertInvoice stores the header and line items and assigns their ids.
	// A duplicate invoice number is reported as ierr.ErrConflict.
	InsertInvoice(ctx context.Context, inv *domain.Invoice) error

	// LockInvoice loads the full invoice and holds it against concurrent writers
	// until the transaction ends.
	LockInvoice(ctx context.Context, id int64) (*domain.Invoice, error)

	// ReplaceInvoice rewrites the editable header, derived totals and all line items
	ReplaceInvoice(ctx context.Context, inv *domain.Invoice) error

	// InsertPayment appends a payment and assigns its id
	InsertPayment(ctx context.Context, p *domain.Payment) error

	// UpdateBalance persists paid_amount, balance_amount and payment_status
	UpdateBalance(ctx context.Context, inv *domain.Invoice) error

	// CancelInvoice persists the cancellation fields
	CancelInvoice(ctx context.Context, inv *domain.Invoice) error

	// DeleteInvoice removes the invoice and its line items
	DeleteInvoice(ctx context.Context, id int64) error
}

// DirectoryRepository reads (and for seeding, writes) the customer directory
// and the priced catalogs that line items reference.
type DirectoryRepository interface {
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	GetCatalogItem(ctx context.Context, itemType domain.ItemType, id int64) (*domain.CatalogItem, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// normalizePage applies the default page and clamps the limit
func normalizePage(filter *domain.InvoiceFilter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a search term for a LIKE ... ESCAPE '\' substring match,
// treating any wildcard characters in the term literally
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func newPagination(totalItems int, filter domain.InvoiceFilter) domain.Pagination {
	return domain.Pagination{
		TotalItems:  totalItems,
		TotalPages:  int(math.Ceil(float64(totalItems) / float64(filter.Limit))),
		CurrentPage: filter.Page,
		Limit:       filter.Limit,
	}
}
