package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/database"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgQuerier is satisfied by both the pool and a transaction
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgInvoiceColumns = `
	i.id, i.invoice_number, i.customer_id, c.name, c.email, c.phone,
	i.bill_date, i.due_date, i.discount_percentage, i.tax_percentage, i.notes,
	i.subtotal, i.discount_amount, i.taxable_amount, i.tax_amount, i.total_amount,
	i.paid_amount, i.balance_amount, i.payment_status,
	i.cancelled_at, i.cancelled_by, i.cancellation_reason,
	i.created_by, i.created_at, i.updated_at`

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL
type PostgresInvoiceRepository struct {
	db *database.PostgresDB
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db *database.PostgresDB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

// WithTx runs fn in a transaction on a pooled connection
func (r *PostgresInvoiceRepository) WithTx(ctx context.Context, fn func(tx InvoiceTx) error) error {
	return r.db.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&postgresInvoiceTx{q: tx})
	})
}

// GetInvoiceByID retrieves an invoice by its ID
func (r *PostgresInvoiceRepository) GetInvoiceByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return pgGetInvoice(ctx, r.db.GetPool(), id, false)
}

// ListInvoices retrieves invoices with optional filters and pagination
func (r *PostgresInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	normalizePage(&filter)
	result := &domain.PaginatedInvoices{Data: []domain.Invoice{}}

	// Build query conditions
	conditions := []string{}
	args := []interface{}{}
	argCount := 1

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf(`(i.invoice_number ILIKE $%d ESCAPE '\' OR c.name ILIKE $%d ESCAPE '\')`, argCount, argCount))
		args = append(args, likePattern(s))
		argCount++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("i.customer_id = $%d", argCount))
		args = append(args, *filter.CustomerID)
		argCount++
	}
	if filter.PaymentStatus != "" {
		// The filter matches the status a reader sees, so an overdue invoice is
		// only returned for "overdue" and never for its stored status.
		overdue := fmt.Sprintf("(i.cancelled_at IS NULL AND i.payment_status <> 'fully_paid' AND i.due_date IS NOT NULL AND i.due_date < $%d)", argCount)
		args = append(args, filter.Today.Time)
		argCount++
		if filter.PaymentStatus == domain.PaymentStatusOverdue {
			conditions = append(conditions, overdue)
		} else {
			conditions = append(conditions, fmt.Sprintf("i.payment_status = $%d AND NOT %s", argCount, overdue))
			args = append(args, string(filter.PaymentStatus))
			argCount++
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalItems int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices i JOIN customers c ON c.id = i.customer_id %s`, whereClause)
	if err := r.db.GetPool().QueryRow(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, databaseError(err, "failed to count invoices")
	}

	result.Pagination = newPagination(totalItems, filter)
	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		%s
		ORDER BY i.bill_date DESC, i.id DESC
		LIMIT $%d OFFSET $%d
	`, pgInvoiceColumns, whereClause, argCount, argCount+1)

	invoices, err := pgQueryInvoices(ctx, r.db.GetPool(), query, args...)
	if err != nil {
		return nil, err
	}
	result.Data = invoices
	return result, nil
}

// ListOverdueInvoices retrieves open invoices past their due date, oldest due first
func (r *PostgresInvoiceRepository) ListOverdueInvoices(ctx context.Context, today domain.DateOnly) ([]domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.cancelled_at IS NULL
		  AND i.payment_status <> 'fully_paid'
		  AND i.due_date < $1
		ORDER BY i.due_date ASC, i.id ASC
	`, pgInvoiceColumns)

	return pgQueryInvoices(ctx, r.db.GetPool(), query, today.Time)
}

// GetSummary aggregates billed, collected and outstanding amounts
func (r *PostgresInvoiceRepository) GetSummary(ctx context.Context, today domain.DateOnly) (*domain.InvoiceSummary, error) {
	var s domain.InvoiceSummary
	err := r.db.GetPool().QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(paid_amount), 0),
			COALESCE(SUM(balance_amount), 0),
			COUNT(*) FILTER (WHERE payment_status = 'unpaid'),
			COUNT(*) FILTER (WHERE payment_status = 'partially_paid'),
			COUNT(*) FILTER (WHERE payment_status = 'fully_paid'),
			COUNT(*) FILTER (WHERE payment_status <> 'fully_paid' AND due_date < $1)
		FROM invoices
		WHERE cancelled_at IS NULL
	`, today.Time).Scan(
		&s.InvoiceCount, &s.TotalBilled, &s.TotalCollected, &s.TotalOutstanding,
		&s.UnpaidCount, &s.PartiallyPaid, &s.FullyPaidCount, &s.OverdueCount,
	)
	if err != nil {
		return nil, databaseError(err, "failed to summarize invoices")
	}
	return &s, nil
}

// postgresInvoiceTx implements InvoiceTx on an open pgx transaction
type postgresInvoiceTx struct {
	q pgQuerier
}

func (t *postgresInvoiceTx) LastInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := t.q.QueryRow(ctx, `
		SELECT invoice_number
		FROM invoices
		WHERE left(invoice_number, length($1)) = $1
		ORDER BY length(invoice_number) DESC, invoice_number DESC
		LIMIT 1
	`, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", databaseError(err, "failed to read last invoice number")
	}
	return number, nil
}

func (t *postgresInvoiceTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO invoices (
			invoice_number, customer_id, bill_date, due_date, discount_percentage, tax_percentage, notes,
			subtotal, discount_amount, taxable_amount, tax_amount, total_amount,
			paid_amount, balance_amount, payment_status, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id
	`, inv.InvoiceNumber, inv.CustomerID, inv.BillDate.Time, pgDate(inv.DueDate),
		inv.DiscountPercentage, inv.TaxPercentage, inv.Notes,
		inv.Subtotal, inv.DiscountAmount, inv.TaxableAmount, inv.TaxAmount, inv.TotalAmount,
		inv.PaidAmount, inv.BalanceAmount, string(inv.PaymentStatus), inv.CreatedBy, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return duplicateNumberError(err, inv.InvoiceNumber)
		}
		return databaseError(err, "failed to insert invoice")
	}

	return t.insertItems(ctx, inv)
}

func (t *postgresInvoiceTx) insertItems(ctx context.Context, inv *domain.Invoice) error {
	for idx := range inv.Items {
		item := &inv.Items[idx]
		item.InvoiceID = inv.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, position, item_type, item_id, item_name, quantity, unit_price, discount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, inv.ID, idx, string(item.ItemType), item.ItemID, item.ItemName, item.Quantity,
			item.UnitPrice, item.Discount, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return databaseError(err, "failed to insert invoice item")
		}
	}
	return nil
}

func (t *postgresInvoiceTx) LockInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	return pgGetInvoice(ctx, t.q, id, true)
}

func (t *postgresInvoiceTx) ReplaceInvoice(ctx context.Context, inv *domain.Invoice) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE invoices
		SET customer_id = $1, bill_date = $2, due_date = $3, discount_percentage = $4, tax_percentage = $5,
			notes = $6, subtotal = $7, discount_amount = $8, taxable_amount = $9, tax_amount = $10,
			total_amount = $11, paid_amount = $12, balance_amount = $13, payment_status = $14, updated_at = $15
		WHERE id = $16
	`, inv.CustomerID, inv.BillDate.Time, pgDate(inv.DueDate), inv.DiscountPercentage, inv.TaxPercentage,
		inv.Notes, inv.Subtotal, inv.DiscountAmount, inv.TaxableAmount, inv.TaxAmount,
		inv.TotalAmount, inv.PaidAmount, inv.BalanceAmount, string(inv.PaymentStatus), inv.UpdatedAt, inv.ID)
	if err != nil {
		return databaseError(err, "failed to update invoice")
	}
	if tag.RowsAffected() == 0 {
		return notFoundError(pgx.ErrNoRows, "Invoice", inv.ID)
	}

	if _, err := t.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return databaseError(err, "failed to delete invoice items")
	}
	return t.insertItems(ctx, inv)
}

func (t *postgresInvoiceTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount, payment_method, payment_reference, notes, card_type, bank_name, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.InvoiceID, p.Amount, string(p.PaymentMethod), p.Reference, p.Notes, p.CardType, p.BankName,
		p.RecordedAt, p.RecordedBy,
	).Scan(&p.ID)
	if err != nil {
		return databaseError(err, "failed to insert payment")
	}
	return nil
}

func (t *postgresInvoiceTx) UpdateBalance(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.q.Exec(ctx, `
		UPDATE invoices
		SET paid_amount = $1, balance_amount = $2, payment_status = $3, updated_at = $4
		WHERE id = $5
	`, inv.PaidAmount, inv.BalanceAmount, string(inv.PaymentStatus), inv.UpdatedAt, inv.ID)
	if err != nil {
		return databaseError(err, "failed to update invoice balance")
	}
	return nil
}

func (t *postgresInvoiceTx) CancelInvoice(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.q.Exec(ctx, `
		UPDATE invoices
		SET cancelled_at = $1, cancelled_by = $2, cancellation_reason = $3, updated_at = $4
		WHERE id = $5
	`, inv.CancelledAt, inv.CancelledBy, inv.CancellationReason, inv.UpdatedAt, inv.ID)
	if err != nil {
		return databaseError(err, "failed to cancel invoice")
	}
	return nil
}

func (t *postgresInvoiceTx) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return paymentsExistError(err, id)
		}
		return databaseError(err, "failed to delete invoice")
	}
	if tag.RowsAffected() == 0 {
		return notFoundError(pgx.ErrNoRows, "Invoice", id)
	}
	return nil
}

func pgGetInvoice(ctx context.Context, q pgQuerier, id int64, forUpdate bool) (*domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1
	`, pgInvoiceColumns)
	if forUpdate {
		query += " FOR UPDATE OF i"
	}

	inv, err := pgScanInvoice(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError(err, "Invoice", id)
		}
		return nil, databaseError(err, "failed to get invoice")
	}

	invoices := []domain.Invoice{*inv}
	if err := pgLoadChildren(ctx, q, invoices); err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

func pgQueryInvoices(ctx context.Context, q pgQuerier, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, databaseError(err, "failed to query invoices")
	}
	defer rows.Close()

	invoices := []domain.Invoice{}
	for rows.Next() {
		inv, err := pgScanInvoice(rows)
		if err != nil {
			return nil, databaseError(err, "failed to scan invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, databaseError(err, "error iterating invoices")
	}

	if err := pgLoadChildren(ctx, q, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func pgScanInvoice(row pgx.Row) (*domain.Invoice, error) {
	inv := domain.NewInvoice()
	customer := &domain.CustomerRef{}
	var billDate time.Time
	var dueDate *time.Time
	var status string

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &customer.Name, &customer.Email, &customer.Phone,
		&billDate, &dueDate, &inv.DiscountPercentage, &inv.TaxPercentage, &inv.Notes,
		&inv.Subtotal, &inv.DiscountAmount, &inv.TaxableAmount, &inv.TaxAmount, &inv.TotalAmount,
		&inv.PaidAmount, &inv.BalanceAmount, &status,
		&inv.CancelledAt, &inv.CancelledBy, &inv.CancellationReason,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	customer.ID = inv.CustomerID
	inv.Customer = customer
	inv.BillDate = domain.NewDateOnly(billDate)
	if dueDate != nil {
		d := domain.NewDateOnly(*dueDate)
		inv.DueDate = &d
	}
	inv.PaymentStatus = domain.PaymentStatus(status)
	return inv, nil
}

// pgLoadChildren fills items and payments for all invoices with one query each
func pgLoadChildren(ctx context.Context, q pgQuerier, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Invoice, len(invoices))
	ids := make([]int64, 0, len(invoices))
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
		ids = append(ids, invoices[i].ID)
	}

	itemRows, err := q.Query(ctx, `
		SELECT id, invoice_id, item_type, item_id, item_name, quantity, unit_price, discount, line_total
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, position
	`, ids)
	if err != nil {
		return databaseError(err, "failed to query invoice items")
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.LineItem
		var itemType string
		if err := itemRows.Scan(
			&item.ID, &item.InvoiceID, &itemType, &item.ItemID, &item.ItemName, &item.Quantity,
			&item.UnitPrice, &item.Discount, &item.LineTotal,
		); err != nil {
			return databaseError(err, "failed to scan invoice item")
		}
		item.ItemType = domain.ItemType(itemType)
		if inv, ok := byID[item.InvoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return databaseError(err, "error iterating invoice items")
	}
	itemRows.Close()

	paymentRows, err := q.Query(ctx, `
		SELECT id, invoice_id, amount, payment_method, payment_reference, notes, card_type, bank_name, recorded_at, recorded_by
		FROM payments
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, recorded_at, id
	`, ids)
	if err != nil {
		return databaseError(err, "failed to query payments")
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		var p domain.Payment
		var method string
		if err := paymentRows.Scan(
			&p.ID, &p.InvoiceID, &p.Amount, &method, &p.Reference, &p.Notes, &p.CardType, &p.BankName,
			&p.RecordedAt, &p.RecordedBy,
		); err != nil {
			return databaseError(err, "failed to scan payment")
		}
		p.PaymentMethod = domain.PaymentMethod(method)
		if inv, ok := byID[p.InvoiceID]; ok {
			inv.Payments = append(inv.Payments, p)
		}
	}
	if err := paymentRows.Err(); err != nil {
		return databaseError(err, "error iterating payments")
	}
	return nil
}

func pgDate(d *domain.DateOnly) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
