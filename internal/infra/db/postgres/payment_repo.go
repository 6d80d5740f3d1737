package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var (
	_ repository.PaymentRepository    = (*PaymentRepo)(nil)
	_ repository.MinutePackRepository = (*MinutePackRepo)(nil)
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) Save(ctx context.Context, qx any, p *model.PaymentRecord) error {
	const q = `
INSERT INTO payments (id, client_id, pack_id, minutes, amount, description, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.ClientID, p.PackID, p.Minutes, p.Amount, p.Description, p.CreatedAt)
	return err
}

func (r *PaymentRepo) ListByClient(ctx context.Context, qx any, clientID string) ([]*model.PaymentRecord, error) {
	const q = `
SELECT id, client_id, pack_id, minutes, amount, description, created_at
  FROM payments WHERE client_id=$1 ORDER BY created_at DESC;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.ID, &p.ClientID, &p.PackID, &p.Minutes, &p.Amount, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SumByPeriod accepts 'week', 'month' or 'year' as the DATE_TRUNC unit.
func (r *PaymentRepo) SumByPeriod(ctx context.Context, qx any, period string) (int64, error) {
	switch period {
	case "week", "month", "year":
	default:
		return 0, domain.ErrInvalidArgument
	}
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE created_at >= DATE_TRUNC($1, NOW());`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := ex.QueryRow(ctx, q, period).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

type MinutePackRepo struct {
	pool *pgxpool.Pool
}

func NewMinutePackRepo(pool *pgxpool.Pool) *MinutePackRepo {
	return &MinutePackRepo{pool: pool}
}

func (r *MinutePackRepo) FindByID(ctx context.Context, qx any, id int) (*model.MinutePack, error) {
	const q = `SELECT id, minutes, price, popular FROM minute_packs WHERE id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	var p model.MinutePack
	if err := ex.QueryRow(ctx, q, id).Scan(&p.ID, &p.Minutes, &p.Price, &p.Popular); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *MinutePackRepo) List(ctx context.Context, qx any) ([]*model.MinutePack, error) {
	const q = `SELECT id, minutes, price, popular FROM minute_packs ORDER BY minutes;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MinutePack
	for rows.Next() {
		var p model.MinutePack
		if err := rows.Scan(&p.ID, &p.Minutes, &p.Price, &p.Popular); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
