package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/database"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	"github.com/shopspring/decimal"
)

const sqliteInvoiceColumns = `
	i.id, i.invoice_number, i.customer_id, c.name, c.email, c.phone,
	i.bill_date, i.due_date, i.discount_percentage, i.tax_percentage, i.notes,
	i.subtotal, i.discount_amount, i.taxable_amount, i.tax_amount, i.total_amount,
	i.paid_amount, i.balance_amount, i.payment_status,
	i.cancelled_at, i.cancelled_by, i.cancellation_reason,
	i.created_by, i.created_at, i.updated_at`

// SQLiteInvoiceRepository implements InvoiceRepository on an embedded SQLite file
type SQLiteInvoiceRepository struct {
	db *database.SQLiteDB
}

// NewSQLiteInvoiceRepository creates a new SQLite invoice repository
func NewSQLiteInvoiceRepository(db *database.SQLiteDB) *SQLiteInvoiceRepository {
	return &SQLiteInvoiceRepository{db: db}
}

// WithTx runs fn in a transaction. The database holds a single connection, so
// the transaction is exclusive for its whole duration.
func (r *SQLiteInvoiceRepository) WithTx(ctx context.Context, fn func(tx InvoiceTx) error) error {
	return r.db.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&sqliteInvoiceTx{q: tx})
	})
}

// GetInvoiceByID retrieves an invoice by its ID
func (r *SQLiteInvoiceRepository) GetInvoiceByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return sqliteGetInvoice(ctx, r.db.DB(), id)
}

// ListInvoices retrieves invoices with optional filters and pagination
func (r *SQLiteInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	normalizePage(&filter)
	result := &domain.PaginatedInvoices{Data: []domain.Invoice{}}

	conditions := []string{}
	args := []interface{}{}

	if s := strings.TrimSpace(filter.Search); s != "" {
		// LIKE is case insensitive for ASCII in SQLite
		conditions = append(conditions, `(i.invoice_number LIKE ? ESCAPE '\' OR c.name LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(s), likePattern(s))
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, "i.customer_id = ?")
		args = append(args, *filter.CustomerID)
	}
	if filter.PaymentStatus != "" {
		overdue := "(i.cancelled_at IS NULL AND i.payment_status <> 'fully_paid' AND i.due_date IS NOT NULL AND i.due_date < ?)"
		if filter.PaymentStatus == domain.PaymentStatusOverdue {
			conditions = append(conditions, overdue)
			args = append(args, sqliteDate(filter.Today))
		} else {
			conditions = append(conditions, "i.payment_status = ? AND NOT "+overdue)
			args = append(args, string(filter.PaymentStatus), sqliteDate(filter.Today))
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalItems int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices i JOIN customers c ON c.id = i.customer_id %s`, whereClause)
	if err := r.db.DB().QueryRowContext(ctx, countQuery, args...).Scan(&totalItems); err != nil {
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
		LIMIT ? OFFSET ?
	`, sqliteInvoiceColumns, whereClause)

	invoices, err := sqliteQueryInvoices(ctx, r.db.DB(), query, args...)
	if err != nil {
		return nil, err
	}
	result.Data = invoices
	return result, nil
}

// ListOverdueInvoices retrieves open invoices past their due date, oldest due first
func (r *SQLiteInvoiceRepository) ListOverdueInvoices(ctx context.Context, today domain.DateOnly) ([]domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.cancelled_at IS NULL
		  AND i.payment_status <> 'fully_paid'
		  AND i.due_date < ?
		ORDER BY i.due_date ASC, i.id ASC
	`, sqliteInvoiceColumns)

	return sqliteQueryInvoices(ctx, r.db.DB(), query, sqliteDate(today))
}

// GetSummary aggregates the non-cancelled invoices. Amounts are text in
// SQLite, so they are summed as decimals here rather than with SUM().
func (r *SQLiteInvoiceRepository) GetSummary(ctx context.Context, today domain.DateOnly) (*domain.InvoiceSummary, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT total_amount, paid_amount, balance_amount, payment_status, due_date
		FROM invoices
		WHERE cancelled_at IS NULL
	`)
	if err != nil {
		return nil, databaseError(err, "failed to summarize invoices")
	}
	defer rows.Close()

	s := &domain.InvoiceSummary{
		TotalBilled:      decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for rows.Next() {
		var total, paid, balance, status string
		var dueDate sql.NullString
		if err := rows.Scan(&total, &paid, &balance, &status, &dueDate); err != nil {
			return nil, databaseError(err, "failed to scan invoice totals")
		}

		var ts textScanner
		s.InvoiceCount++
		s.TotalBilled = s.TotalBilled.Add(ts.dec("total_amount", total))
		s.TotalCollected = s.TotalCollected.Add(ts.dec("paid_amount", paid))
		s.TotalOutstanding = s.TotalOutstanding.Add(ts.dec("balance_amount", balance))
		if ts.err != nil {
			return nil, databaseError(ts.err, "failed to parse invoice totals")
		}

		switch domain.PaymentStatus(status) {
		case domain.PaymentStatusUnpaid:
			s.UnpaidCount++
		case domain.PaymentStatusPartiallyPaid:
			s.PartiallyPaid++
		case domain.PaymentStatusFullyPaid:
			s.FullyPaidCount++
		}
		if domain.PaymentStatus(status) != domain.PaymentStatusFullyPaid && dueDate.Valid && dueDate.String < sqliteDate(today) {
			s.OverdueCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, databaseError(err, "error iterating invoice totals")
	}
	return s, nil
}

// sqliteInvoiceTx implements InvoiceTx on an open SQLite transaction
type sqliteInvoiceTx struct {
	q sqliteQuerier
}

func (t *sqliteInvoiceTx) LastInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := t.q.QueryRowContext(ctx, `
		SELECT invoice_number
		FROM invoices
		WHERE substr(invoice_number, 1, ?) = ?
		ORDER BY length(invoice_number) DESC, invoice_number DESC
		LIMIT 1
	`, len(prefix), prefix).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", databaseError(err, "failed to read last invoice number")
	}
	return number, nil
}

func (t *sqliteInvoiceTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO invoices (
			invoice_number, customer_id, bill_date, due_date, discount_percentage, tax_percentage, notes,
			subtotal, discount_amount, taxable_amount, tax_amount, total_amount,
			paid_amount, balance_amount, payment_status, created_by, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.InvoiceNumber, inv.CustomerID, sqliteDate(inv.BillDate), sqliteNullDate(inv.DueDate),
		percent(inv.DiscountPercentage), percent(inv.TaxPercentage), inv.Notes,
		money(inv.Subtotal), money(inv.DiscountAmount), money(inv.TaxableAmount), money(inv.TaxAmount), money(inv.TotalAmount),
		money(inv.PaidAmount), money(inv.BalanceAmount), string(inv.PaymentStatus), inv.CreatedBy,
		sqliteTime(inv.CreatedAt), sqliteTime(inv.UpdatedAt),
	)
	if err != nil {
		if sqliteConstraint(err, "UNIQUE") {
			return duplicateNumberError(err, inv.InvoiceNumber)
		}
		return databaseError(err, "failed to insert invoice")
	}

	if inv.ID, err = res.LastInsertId(); err != nil {
		return databaseError(err, "failed to read invoice id")
	}
	return t.insertItems(ctx, inv)
}

func (t *sqliteInvoiceTx) insertItems(ctx context.Context, inv *domain.Invoice) error {
	for idx := range inv.Items {
		item := &inv.Items[idx]
		item.InvoiceID = inv.ID
		res, err := t.q.ExecContext(ctx, `
			INSERT INTO invoice_items (invoice_id, position, item_type, item_id, item_name, quantity, unit_price, discount, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, inv.ID, idx, string(item.ItemType), item.ItemID, item.ItemName, item.Quantity,
			money(item.UnitPrice), money(item.Discount), money(item.LineTotal),
		)
		if err != nil {
			return databaseError(err, "failed to insert invoice item")
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return databaseError(err, "failed to read invoice item id")
		}
	}
	return nil
}

// LockInvoice reads the invoice inside the transaction. The single
// connection already excludes every other writer.
func (t *sqliteInvoiceTx) LockInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	return sqliteGetInvoice(ctx, t.q, id)
}

func (t *sqliteInvoiceTx) ReplaceInvoice(ctx context.Context, inv *domain.Invoice) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE invoices
		SET customer_id = ?, bill_date = ?, due_date = ?, discount_percentage = ?, tax_percentage = ?,
			notes = ?, subtotal = ?, discount_amount = ?, taxable_amount = ?, tax_amount = ?,
			total_amount = ?, paid_amount = ?, balance_amount = ?, payment_status = ?, updated_at = ?
		WHERE id = ?
	`, inv.CustomerID, sqliteDate(inv.BillDate), sqliteNullDate(inv.DueDate),
		percent(inv.DiscountPercentage), percent(inv.TaxPercentage),
		inv.Notes, money(inv.Subtotal), money(inv.DiscountAmount), money(inv.TaxableAmount), money(inv.TaxAmount),
		money(inv.TotalAmount), money(inv.PaidAmount), money(inv.BalanceAmount), string(inv.PaymentStatus),
		sqliteTime(inv.UpdatedAt), inv.ID)
	if err != nil {
		return databaseError(err, "failed to update invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundError(sql.ErrNoRows, "Invoice", inv.ID)
	}

	if _, err := t.q.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, inv.ID); err != nil {
		return databaseError(err, "failed to delete invoice items")
	}
	return t.insertItems(ctx, inv)
}

func (t *sqliteInvoiceTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO payments (invoice_id, amount, payment_method, payment_reference, notes, card_type, bank_name, recorded_at, recorded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.InvoiceID, money(p.Amount), string(p.PaymentMethod), p.Reference, p.Notes, p.CardType, p.BankName,
		sqliteTime(p.RecordedAt), p.RecordedBy,
	)
	if err != nil {
		return databaseError(err, "failed to insert payment")
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return databaseError(err, "failed to read payment id")
	}
	return nil
}

func (t *sqliteInvoiceTx) UpdateBalance(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE invoices
		SET paid_amount = ?, balance_amount = ?, payment_status = ?, updated_at = ?
		WHERE id = ?
	`, money(inv.PaidAmount), money(inv.BalanceAmount), string(inv.PaymentStatus), sqliteTime(inv.UpdatedAt), inv.ID)
	if err != nil {
		return databaseError(err, "failed to update invoice balance")
	}
	return nil
}

func (t *sqliteInvoiceTx) CancelInvoice(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE invoices
		SET cancelled_at = ?, cancelled_by = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ?
	`, sqliteNullTime(inv.CancelledAt), inv.CancelledBy, inv.CancellationReason, sqliteTime(inv.UpdatedAt), inv.ID)
	if err != nil {
		return databaseError(err, "failed to cancel invoice")
	}
	return nil
}

func (t *sqliteInvoiceTx) DeleteInvoice(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		if sqliteConstraint(err, "FOREIGN KEY") {
			return paymentsExistError(err, id)
		}
		return databaseError(err, "failed to delete invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundError(sql.ErrNoRows, "Invoice", id)
	}
	return nil
}

func sqliteGetInvoice(ctx context.Context, q sqliteQuerier, id int64) (*domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = ?
	`, sqliteInvoiceColumns)

	inv, err := sqliteScanInvoice(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError(err, "Invoice", id)
		}
		return nil, databaseError(err, "failed to get invoice")
	}

	invoices := []domain.Invoice{*inv}
	if err := sqliteLoadChildren(ctx, q, invoices); err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

func sqliteQueryInvoices(ctx context.Context, q sqliteQuerier, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, databaseError(err, "failed to query invoices")
	}

	invoices := []domain.Invoice{}
	for rows.Next() {
		inv, err := sqliteScanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, databaseError(err, "failed to scan invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, databaseError(err, "error iterating invoices")
	}
	// The connection must be free before the child queries run
	rows.Close()

	if err := sqliteLoadChildren(ctx, q, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func sqliteScanInvoice(row rowScanner) (*domain.Invoice, error) {
	inv := domain.NewInvoice()
	customer := &domain.CustomerRef{}
	var billDate, discountPct, taxPct, status, createdAt, updatedAt string
	var subtotal, discountAmount, taxable, tax, total, paid, balance string
	var dueDate, cancelledAt sql.NullString

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &customer.Name, &customer.Email, &customer.Phone,
		&billDate, &dueDate, &discountPct, &taxPct, &inv.Notes,
		&subtotal, &discountAmount, &taxable, &tax, &total,
		&paid, &balance, &status,
		&cancelledAt, &inv.CancelledBy, &inv.CancellationReason,
		&inv.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var ts textScanner
	inv.BillDate = ts.date("bill_date", billDate)
	inv.DueDate = ts.nullDate("due_date", dueDate)
	inv.DiscountPercentage = ts.dec("discount_percentage", discountPct)
	inv.TaxPercentage = ts.dec("tax_percentage", taxPct)
	inv.Subtotal = ts.dec("subtotal", subtotal)
	inv.DiscountAmount = ts.dec("discount_amount", discountAmount)
	inv.TaxableAmount = ts.dec("taxable_amount", taxable)
	inv.TaxAmount = ts.dec("tax_amount", tax)
	inv.TotalAmount = ts.dec("total_amount", total)
	inv.PaidAmount = ts.dec("paid_amount", paid)
	inv.BalanceAmount = ts.dec("balance_amount", balance)
	inv.CancelledAt = ts.nullTS("cancelled_at", cancelledAt)
	inv.CreatedAt = ts.ts("created_at", createdAt)
	inv.UpdatedAt = ts.ts("updated_at", updatedAt)
	if ts.err != nil {
		return nil, ts.err
	}

	customer.ID = inv.CustomerID
	inv.Customer = customer
	inv.PaymentStatus = domain.PaymentStatus(status)
	return inv, nil
}

func sqliteLoadChildren(ctx context.Context, q sqliteQuerier, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Invoice, len(invoices))
	placeholders := make([]string, len(invoices))
	ids := make([]any, len(invoices))
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
		placeholders[i] = "?"
		ids[i] = invoices[i].ID
	}
	in := strings.Join(placeholders, ", ")

	if err := sqliteLoadItems(ctx, q, in, ids, byID); err != nil {
		return err
	}
	return sqliteLoadPayments(ctx, q, in, ids, byID)
}

func sqliteLoadItems(ctx context.Context, q sqliteQuerier, in string, ids []any, byID map[int64]*domain.Invoice) error {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, invoice_id, item_type, item_id, item_name, quantity, unit_price, discount, line_total
		FROM invoice_items
		WHERE invoice_id IN (%s)
		ORDER BY invoice_id, position
	`, in), ids...)
	if err != nil {
		return databaseError(err, "failed to query invoice items")
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem
		var itemType, unitPrice, discount, lineTotal string
		var itemID sql.NullInt64
		if err := rows.Scan(
			&item.ID, &item.InvoiceID, &itemType, &itemID, &item.ItemName, &item.Quantity,
			&unitPrice, &discount, &lineTotal,
		); err != nil {
			return databaseError(err, "failed to scan invoice item")
		}

		var ts textScanner
		item.ItemType = domain.ItemType(itemType)
		item.ItemID = nullInt64(itemID)
		item.UnitPrice = ts.dec("unit_price", unitPrice)
		item.Discount = ts.dec("discount", discount)
		item.LineTotal = ts.dec("line_total", lineTotal)
		if ts.err != nil {
			return databaseError(ts.err, "failed to parse invoice item")
		}

		if inv, ok := byID[item.InvoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return databaseError(err, "error iterating invoice items")
	}
	return nil
}

func sqliteLoadPayments(ctx context.Context, q sqliteQuerier, in string, ids []any, byID map[int64]*domain.Invoice) error {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, invoice_id, amount, payment_method, payment_reference, notes, card_type, bank_name, recorded_at, recorded_by
		FROM payments
		WHERE invoice_id IN (%s)
		ORDER BY invoice_id, recorded_at, id
	`, in), ids...)
	if err != nil {
		return databaseError(err, "failed to query payments")
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Payment
		var amount, method, recordedAt string
		if err := rows.Scan(
			&p.ID, &p.InvoiceID, &amount, &method, &p.Reference, &p.Notes, &p.CardType, &p.BankName,
			&recordedAt, &p.RecordedBy,
		); err != nil {
			return databaseError(err, "failed to scan payment")
		}

		var ts textScanner
		p.Amount = ts.dec("amount", amount)
		p.RecordedAt = ts.ts("recorded_at", recordedAt)
		if ts.err != nil {
			return databaseError(ts.err, "failed to parse payment")
		}
		p.PaymentMethod = domain.PaymentMethod(method)

		if inv, ok := byID[p.InvoiceID]; ok {
			inv.Payments = append(inv.Payments, p)
		}
	}
	if err := rows.Err(); err != nil {
		return databaseError(err, "error iterating payments")
	}
	return nil
}
