package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceReader {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceReader = (*PgxInvoiceRepository)(nil)

const FULL_INVOICE_SELECT_QUERY = `
SELECT
	invoice_id, entity_id, invoice_number, invoice_type, customer_id, vendor_id, invoice_date, due_date,
	currency, line_items, gst_type, cgst, sgst, igst, tds_amount, round_off, subtotal, tax_total,
	total_amount, amount_paid, amount_due, status, aging_bucket, days_overdue, notes,
	finalized_at, cancelled_at, version, created_at, created_by, last_updated_at, last_updated_by
FROM invoices
`

const FULL_ALLOCATION_SELECT_QUERY = `
SELECT allocation_id, payment_id, invoice_id, currency, amount, created_at, created_by
FROM allocations
`

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, entityID, invoiceID string) (*domain.Invoice, error) {
	invoices, err := getInvoices(ctx, r.Pool, FULL_INVOICE_SELECT_QUERY+"WHERE invoice_id = $1 AND entity_id = $2", invoiceID, entityID)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, notFound("invoice", invoiceID)
	}
	inv := invoices[0]

	allocations, err := collect[models.Allocation](ctx, r.Pool, "allocations",
		FULL_ALLOCATION_SELECT_QUERY+"WHERE invoice_id = $1 ORDER BY created_at, allocation_id", invoiceID)
	if err != nil {
		return nil, err
	}
	if len(allocations) > 0 {
		inv.Allocations = mapping.ToDomainAllocationSlice(allocations)
	}
	return &inv, nil
}

func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	where := &whereBuilder{}
	where.add("entity_id = %s", filter.EntityID)
	if filter.InvoiceType != "" {
		where.add("invoice_type = %s", string(filter.InvoiceType))
	}
	if filter.Status != "" {
		where.add("status = %s", string(filter.Status))
	}
	if filter.AgingBucket != "" {
		where.add("aging_bucket = %s", string(filter.AgingBucket))
	}
	if filter.PartyID != "" {
		where.add("(customer_id = %[1]s OR vendor_id = %[1]s)", filter.PartyID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add("(invoice_number || ' ' || notes) ILIKE %s", likePattern(search))
	}

	var total int
	if err := r.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count invoices", err)
	}

	query := FULL_INVOICE_SELECT_QUERY + where.String() + " ORDER BY invoice_date DESC, invoice_number DESC" + where.page(filter.Limit, filter.Offset)
	invoices, err := getInvoices(ctx, r.Pool, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *PgxInvoiceRepository) ListInvoicesForEntities(ctx context.Context, entityIDs []string) ([]domain.Invoice, error) {
	return getInvoices(ctx, r.Pool,
		FULL_INVOICE_SELECT_QUERY+"WHERE cardinality($1::text[]) = 0 OR entity_id = ANY($1)", entityScope(entityIDs))
}

// getInvoices private func to get invoices from the select query filters
func getInvoices(ctx context.Context, q querier, query string, args ...any) ([]domain.Invoice, error) {
	ms, err := collect[models.Invoice](ctx, q, "invoices", query, args...)
	if err != nil {
		return nil, err
	}
	invoices, err := mapping.ToDomainInvoiceSlice(ms)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode invoices", err)
	}
	return invoices, nil
}

// whereBuilder accumulates AND-ed conditions with positional arguments. Each
// condition takes exactly one argument, referenced as %s or %[1]s.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET arguments. A non-positive limit means no limit.
func (w *whereBuilder) page(limit, offset int) string {
	var clause string
	if limit > 0 {
		w.args = append(w.args, limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(w.args))
	}
	return clause
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
