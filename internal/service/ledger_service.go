package service

import (
	"context"
	"strings"
	"time"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/metrics"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/repository"
	"github.com/samber/lo"
)

// LedgerService defines the invoice ledger operations. Every call carries the
// authenticated actor it is made for.
type LedgerService interface {
	// Invoice lifecycle
	CreateInvoice(ctx context.Context, actor domain.Actor, in domain.InvoiceInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, actor domain.Actor, id int64) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, actor domain.Actor, id int64, in domain.InvoiceInput) (*domain.Invoice, error)
	CancelInvoice(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, actor domain.Actor, id int64) error

	// Payments
	RecordPayment(ctx context.Context, actor domain.Actor, invoiceID int64, in domain.PaymentInput) (*domain.Invoice, error)

	// Query operations
	ListInvoices(ctx context.Context, actor domain.Actor, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)
	GetOverdueInvoices(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error)
	GetSummary(ctx context.Context, actor domain.Actor) (*domain.InvoiceSummary, error)
}

// LedgerConfig carries the ledger's clinic specific settings
type LedgerConfig struct {
	// NumberPrefix replaces DefaultNumberPrefix when set
	NumberPrefix string
	// Location is the clinic time zone that decides what "today" is
	Location *time.Location
	// Clock replaces time.Now, for tests
	Clock func() time.Time
}

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	invoices  repository.InvoiceRepository
	directory repository.DirectoryRepository
	logger    *logger.Logger
	metrics   *metrics.Metrics
	prefix    string
	location  *time.Location
	clock     func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	invoices repository.InvoiceRepository,
	directory repository.DirectoryRepository,
	log *logger.Logger,
	m *metrics.Metrics,
	cfg LedgerConfig,
) LedgerService {
	s := &LedgerServiceImpl{
		invoices:  invoices,
		directory: directory,
		logger:    log,
		metrics:   m,
		prefix:    cfg.NumberPrefix,
		location:  cfg.Location,
		clock:     cfg.Clock,
	}
	if s.prefix == "" {
		s.prefix = DefaultNumberPrefix
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// CreateInvoice prices the line items, computes the totals and stores the
// invoice under a freshly allocated number, together with the optional
// initial payment.
func (s *LedgerServiceImpl) CreateInvoice(ctx context.Context, actor domain.Actor, in domain.InvoiceInput) (*domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("create_invoice", err)
	}

	template, err := s.buildInvoice(ctx, in)
	if err != nil {
		return nil, s.fail("create_invoice", err)
	}

	now := s.now()
	template.CreatedBy = actor.UserID
	template.CreatedAt = now
	template.UpdatedAt = now
	dayPrefix := numberPrefix(s.prefix, template.BillDate)

	var created *domain.Invoice
	for attempt := 1; ; attempt++ {
		err = s.invoices.WithTx(ctx, func(tx repository.InvoiceTx) error {
			inv := cloneInvoice(template)

			last, err := tx.LastInvoiceNumber(ctx, dayPrefix)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = nextInvoiceNumber(last, dayPrefix)

			if err := tx.InsertInvoice(ctx, inv); err != nil {
				return err
			}

			if in.InitialPayment != nil && !in.InitialPayment.Amount.IsZero() {
				if err := s.applyPayment(ctx, tx, inv, *in.InitialPayment, actor, now); err != nil {
					return err
				}
			}

			created = inv
			return nil
		})
		if err == nil {
			break
		}
		if !ierr.IsConflict(err) || attempt == maxNumberAttempts {
			return nil, s.fail("create_invoice", err)
		}

		s.metrics.NumberRetries.Inc()
		s.logger.Warnw("invoice number collision, retrying",
			"prefix", dayPrefix,
			"attempt", attempt,
		)
	}

	s.metrics.InvoicesCreated.Inc()
	if len(created.Payments) > 0 {
		s.observePayment(created.Payments[0])
	}
	s.logger.Infow("invoice created",
		"invoice_id", created.ID,
		"invoice_number", created.InvoiceNumber,
		"customer_id", created.CustomerID,
		"total_amount", created.TotalAmount.StringFixed(domain.MoneyPlaces),
		"actor", actor.UserID,
	)
	return s.present(created), nil
}

// GetInvoice retrieves an invoice with its items and payment history
func (s *LedgerServiceImpl) GetInvoice(ctx context.Context, actor domain.Actor, id int64) (*domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("get_invoice", err)
	}

	inv, err := s.invoices.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, s.fail("get_invoice", err)
	}
	return s.present(inv), nil
}

// UpdateInvoice replaces the header and line items of an invoice that has no
// payments and is not cancelled.
func (s *LedgerServiceImpl) UpdateInvoice(ctx context.Context, actor domain.Actor, id int64, in domain.InvoiceInput) (*domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("update_invoice", err)
	}

	template, err := s.buildInvoice(ctx, in)
	if err != nil {
		return nil, s.fail("update_invoice", err)
	}

	var updated *domain.Invoice
	err = s.invoices.WithTx(ctx, func(tx repository.InvoiceTx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := checkEditable(inv); err != nil {
			return err
		}

		inv.CustomerID = template.CustomerID
		inv.Customer = template.Customer
		inv.BillDate = template.BillDate
		inv.DueDate = template.DueDate
		inv.Items = template.Items
		inv.DiscountPercentage = template.DiscountPercentage
		inv.TaxPercentage = template.TaxPercentage
		inv.Notes = template.Notes
		inv.UpdatedAt = s.now()
		inv.Recalculate()

		if err := tx.ReplaceInvoice(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, s.fail("update_invoice", err)
	}

	s.logger.Infow("invoice updated",
		"invoice_id", updated.ID,
		"invoice_number", updated.InvoiceNumber,
		"total_amount", updated.TotalAmount.StringFixed(domain.MoneyPlaces),
		"actor", actor.UserID,
	)
	return s.present(updated), nil
}

// CancelInvoice flags an invoice as cancelled. The row and its payments are kept.
func (s *LedgerServiceImpl) CancelInvoice(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("cancel_invoice", err)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, s.fail("cancel_invoice", ierr.NewError("missing cancellation reason").
			WithHint("A cancellation reason is required").
			WithReportableDetails(map[string]any{"reason": "is required"}).
			Mark(ierr.ErrValidation))
	}

	var cancelled *domain.Invoice
	err := s.invoices.WithTx(ctx, func(tx repository.InvoiceTx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv.IsCancelled() {
			return ierr.NewError("invoice already cancelled").
				WithHintf("Invoice %s is already cancelled", inv.InvoiceNumber).
				Mark(ierr.ErrInvalidState)
		}

		now := s.now()
		inv.CancelledAt = &now
		inv.CancelledBy = actor.UserID
		inv.CancellationReason = reason
		inv.UpdatedAt = now

		if err := tx.CancelInvoice(ctx, inv); err != nil {
			return err
		}
		cancelled = inv
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel_invoice", err)
	}

	s.metrics.InvoicesCancelled.Inc()
	s.logger.Infow("invoice cancelled",
		"invoice_id", cancelled.ID,
		"invoice_number", cancelled.InvoiceNumber,
		"reason", reason,
		"actor", actor.UserID,
	)
	return s.present(cancelled), nil
}

// DeleteInvoice physically removes an invoice that has never been paid
func (s *LedgerServiceImpl) DeleteInvoice(ctx context.Context, actor domain.Actor, id int64) error {
	if err := actor.Validate(); err != nil {
		return s.fail("delete_invoice", err)
	}

	var number string
	err := s.invoices.WithTx(ctx, func(tx repository.InvoiceTx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv.HasPayments() {
			return ierr.NewError("invoice has payments").
				WithHintf("Invoice %s has payments and cannot be deleted; cancel it instead", inv.InvoiceNumber).
				Mark(ierr.ErrInvalidState)
		}
		number = inv.InvoiceNumber
		return tx.DeleteInvoice(ctx, id)
	})
	if err != nil {
		return s.fail("delete_invoice", err)
	}

	s.metrics.InvoicesDeleted.Inc()
	s.logger.Infow("invoice deleted",
		"invoice_id", id,
		"invoice_number", number,
		"actor", actor.UserID,
	)
	return nil
}

// RecordPayment appends a payment under the invoice row lock. The balance
// check runs against the locked row, so concurrent payments serialize and
// the later one sees the reduced balance.
func (s *LedgerServiceImpl) RecordPayment(ctx context.Context, actor domain.Actor, invoiceID int64, in domain.PaymentInput) (*domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("record_payment", err)
	}

	var updated *domain.Invoice
	err := s.invoices.WithTx(ctx, func(tx repository.InvoiceTx) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.applyPayment(ctx, tx, inv, in, actor, s.now()); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, s.fail("record_payment", err)
	}

	payment := updated.Payments[len(updated.Payments)-1]
	s.observePayment(payment)
	s.logger.Infow("payment recorded",
		"invoice_id", updated.ID,
		"invoice_number", updated.InvoiceNumber,
		"payment_id", payment.ID,
		"amount", payment.Amount.StringFixed(domain.MoneyPlaces),
		"method", payment.PaymentMethod,
		"balance_amount", updated.BalanceAmount.StringFixed(domain.MoneyPlaces),
		"payment_status", updated.PaymentStatus,
		"actor", actor.UserID,
	)
	return s.present(updated), nil
}

// ListInvoices retrieves invoices matching the filter. A payment_status of
// overdue is evaluated against today's date.
func (s *LedgerServiceImpl) ListInvoices(ctx context.Context, actor domain.Actor, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("list_invoices", err)
	}
	if filter.PaymentStatus != "" && !lo.Contains(filterableStatuses, filter.PaymentStatus) {
		return nil, s.fail("list_invoices", ierr.NewError("invalid payment status filter").
			WithHintf("Unknown payment status %q", filter.PaymentStatus).
			WithReportableDetails(map[string]any{
				"payment_status": "must be one of: unpaid, partially_paid, fully_paid, overdue",
			}).
			Mark(ierr.ErrValidation))
	}

	filter.Today = s.today()
	result, err := s.invoices.ListInvoices(ctx, filter)
	if err != nil {
		return nil, s.fail("list_invoices", err)
	}
	for i := range result.Data {
		s.present(&result.Data[i])
	}
	return result, nil
}

// GetOverdueInvoices returns the invoices that are overdue as of now
func (s *LedgerServiceImpl) GetOverdueInvoices(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("get_overdue_invoices", err)
	}

	invoices, err := s.invoices.ListOverdueInvoices(ctx, s.today())
	if err != nil {
		return nil, s.fail("get_overdue_invoices", err)
	}
	for i := range invoices {
		s.present(&invoices[i])
	}
	return invoices, nil
}

// GetSummary aggregates billed, collected and outstanding totals
func (s *LedgerServiceImpl) GetSummary(ctx context.Context, actor domain.Actor) (*domain.InvoiceSummary, error) {
	if err := actor.Validate(); err != nil {
		return nil, s.fail("get_summary", err)
	}

	summary, err := s.invoices.GetSummary(ctx, s.today())
	if err != nil {
		return nil, s.fail("get_summary", err)
	}
	return summary, nil
}

var filterableStatuses = []domain.PaymentStatus{
	domain.PaymentStatusUnpaid,
	domain.PaymentStatusPartiallyPaid,
	domain.PaymentStatusFullyPaid,
	domain.PaymentStatusOverdue,
}

// buildInvoice resolves the customer and catalog references of in and returns
// a validated, fully computed invoice that is not yet stored.
func (s *LedgerServiceImpl) buildInvoice(ctx context.Context, in domain.InvoiceInput) (*domain.Invoice, error) {
	inv := domain.NewInvoice()
	inv.CustomerID = in.CustomerID
	inv.BillDate = in.BillDate
	inv.DueDate = in.DueDate
	inv.DiscountPercentage = in.DiscountPercentage
	inv.TaxPercentage = in.TaxPercentage
	inv.Notes = strings.TrimSpace(in.Notes)

	if in.CustomerID > 0 {
		customer, err := s.directory.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		inv.Customer = customer.Ref()
	}

	missing := map[string]any{}
	for idx, itemIn := range in.Items {
		item := domain.LineItem{
			ItemType: itemIn.ItemType,
			ItemID:   itemIn.ItemID,
			ItemName: strings.TrimSpace(itemIn.ItemName),
			Quantity: itemIn.Quantity,
			Discount: itemIn.Discount,
		}
		if itemIn.UnitPrice != nil {
			item.UnitPrice = *itemIn.UnitPrice
		}

		if itemIn.ItemID != nil && itemIn.ItemType.HasCatalogSource() {
			entry, err := s.directory.GetCatalogItem(ctx, itemIn.ItemType, *itemIn.ItemID)
			if err != nil {
				return nil, err
			}
			if itemIn.UnitPrice == nil {
				item.UnitPrice = entry.SellingPrice
			}
			if item.ItemName == "" {
				item.ItemName = entry.Name
			}
		} else if itemIn.UnitPrice == nil {
			missing[domain.LineField(idx, "unit_price")] = "is required"
		}

		inv.Items = append(inv.Items, item)
	}

	details := inv.ValidationDetails()
	for k, v := range missing {
		if _, ok := details[k]; !ok {
			details[k] = v
		}
	}
	if err := domain.InvalidInvoiceError(details); err != nil {
		return nil, err
	}

	inv.Recalculate()
	return inv, nil
}

// applyPayment runs the payment state machine on inv and persists the result
func (s *LedgerServiceImpl) applyPayment(ctx context.Context, tx repository.InvoiceTx, inv *domain.Invoice, in domain.PaymentInput, actor domain.Actor, at time.Time) error {
	payment, err := inv.ApplyPayment(in, actor, at)
	if err != nil {
		return err
	}
	if err := tx.InsertPayment(ctx, payment); err != nil {
		return err
	}
	return tx.UpdateBalance(ctx, inv)
}

func checkEditable(inv *domain.Invoice) error {
	if inv.IsCancelled() {
		return ierr.NewError("invoice cancelled").
			WithHintf("Invoice %s is cancelled and cannot be edited", inv.InvoiceNumber).
			Mark(ierr.ErrInvalidState)
	}
	if inv.HasPayments() {
		return ierr.NewError("invoice has payments").
			WithHintf("Invoice %s has payments; its items can no longer change", inv.InvoiceNumber).
			Mark(ierr.ErrInvalidState)
	}
	return nil
}

// present replaces the stored status with the status a reader sees today
func (s *LedgerServiceImpl) present(inv *domain.Invoice) *domain.Invoice {
	inv.PaymentStatus = inv.StatusOn(s.today())
	return inv
}

func (s *LedgerServiceImpl) now() time.Time {
	return s.clock().UTC()
}

func (s *LedgerServiceImpl) today() domain.DateOnly {
	return domain.NewDateOnly(s.clock().In(s.location))
}

func (s *LedgerServiceImpl) observePayment(p domain.Payment) {
	method := string(p.PaymentMethod)
	s.metrics.PaymentsRecorded.WithLabelValues(method).Inc()
	s.metrics.AmountCollected.WithLabelValues(method).Add(p.Amount.InexactFloat64())
}

// fail counts a rejected operation by error kind and returns err unchanged
func (s *LedgerServiceImpl) fail(op string, err error) error {
	s.metrics.LedgerErrors.WithLabelValues(op, errorKind(err)).Inc()
	if kind := errorKind(err); kind == "internal" {
		s.logger.Errorw("ledger operation failed", "operation", op, "error", err)
	} else {
		s.logger.Debugw("ledger operation rejected", "operation", op, "kind", kind, "error", err)
	}
	return err
}

func errorKind(err error) string {
	switch {
	case ierr.IsValidation(err):
		return "validation"
	case ierr.IsNotFound(err):
		return "not_found"
	case ierr.IsInvalidState(err):
		return "invalid_state"
	case ierr.IsPermissionDenied(err):
		return "permission_denied"
	default:
		return "internal"
	}
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	c.Items = append(make([]domain.LineItem, 0, len(inv.Items)), inv.Items...)
	c.Payments = append(make([]domain.Payment, 0, len(inv.Payments)), inv.Payments...)
	return &c
}
