package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.ReviewRepository = (*ReviewRepo)(nil)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Save(ctx context.Context, qx any, v *model.Review) error {
	const q = `
INSERT INTO reviews (id, author, rating, body, psychic_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, v.ID, v.Author, v.Rating, v.Text, v.PsychicID, v.Date)
	return err
}

func (r *ReviewRepo) List(ctx context.Context, qx any) ([]*model.Review, error) {
	const q = `SELECT id, author, rating, body, psychic_id, created_at FROM reviews ORDER BY created_at DESC;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *ReviewRepo) ListByPsychic(ctx context.Context, qx any, psychicID string) ([]*model.Review, error) {
	const q = `SELECT id, author, rating, body, psychic_id, created_at FROM reviews WHERE psychic_id=$1 ORDER BY created_at DESC;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, psychicID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *ReviewRepo) Delete(ctx context.Context, qx any, id string) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM reviews WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectReviews(rows pgx.Rows) ([]*model.Review, error) {
	defer rows.Close()
	var out []*model.Review
	for rows.Next() {
		var v model.Review
		if err := rows.Scan(&v.ID, &v.Author, &v.Rating, &v.Text, &v.PsychicID, &v.Date); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
