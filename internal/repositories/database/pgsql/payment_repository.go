package pgsql

import (
	"context"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/models"
	"github.com/SscSPs/settlement_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentReader {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentReader = (*PgxPaymentRepository)(nil)

const FULL_PAYMENT_SELECT_QUERY = `
SELECT
	payment_id, entity_id, payment_number, payment_type, customer_id, vendor_id, bank_account_id,
	payment_date, currency, amount, method, reference, status, version,
	created_at, created_by, last_updated_at, last_updated_by
FROM payments
`

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, entityID, paymentID string) (*domain.Payment, error) {
	payments, err := getPayments(ctx, r.Pool, FULL_PAYMENT_SELECT_QUERY+"WHERE payment_id = $1 AND entity_id = $2", paymentID, entityID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, notFound("payment", paymentID)
	}
	return &payments[0], nil
}

func (r *PgxPaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int, error) {
	where := &whereBuilder{}
	where.add("entity_id = %s", filter.EntityID)
	if filter.PaymentType != "" {
		where.add("payment_type = %s", string(filter.PaymentType))
	}
	if filter.Status != "" {
		where.add("status = %s", string(filter.Status))
	}
	if filter.PartyID != "" {
		where.add("(customer_id = %[1]s OR vendor_id = %[1]s)", filter.PartyID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add("(payment_number || ' ' || reference) ILIKE %s", likePattern(search))
	}

	var total int
	if err := r.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count payments", err)
	}

	query := FULL_PAYMENT_SELECT_QUERY + where.String() + " ORDER BY payment_date DESC, payment_number DESC" + where.page(filter.Limit, filter.Offset)
	payments, err := getPayments(ctx, r.Pool, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// getPayments loads the matching payments together with their allocation records.
func getPayments(ctx context.Context, q querier, query string, args ...any) ([]domain.Payment, error) {
	ms, err := collect[models.Payment](ctx, q, "payments", query, args...)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return []domain.Payment{}, nil
	}

	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.PaymentID
	}
	allocations, err := collect[models.Allocation](ctx, q, "allocations",
		FULL_ALLOCATION_SELECT_QUERY+"WHERE payment_id = ANY($1) ORDER BY created_at, allocation_id", ids)
	if err != nil {
		return nil, err
	}
	byPayment := make(map[string][]models.Allocation, len(ms))
	for _, a := range allocations {
		byPayment[a.PaymentID] = append(byPayment[a.PaymentID], a)
	}

	payments := make([]domain.Payment, len(ms))
	for i, m := range ms {
		payments[i] = mapping.ToDomainPayment(m, byPayment[m.PaymentID])
	}
	return payments, nil
}
