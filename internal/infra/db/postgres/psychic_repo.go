package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.PsychicRepository = (*PsychicRepo)(nil)

type PsychicRepo struct {
	pool *pgxpool.Pool
}

func NewPsychicRepo(pool *pgxpool.Pool) *PsychicRepo {
	return &PsychicRepo{pool: pool}
}

func (r *PsychicRepo) Save(ctx context.Context, qx any, p *model.PsychicProfile) error {
	const q = `
INSERT INTO psychics (
  id, agent_id, name, specialty, description, image_url, rating, reviews_count, is_online
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  agent_id=$2, name=$3, specialty=$4, description=$5, image_url=$6,
  rating=$7, reviews_count=$8, is_online=$9;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.AgentID, p.Name, p.Specialty, p.Description,
		p.ImageURL, p.Rating, p.ReviewsCount, p.IsOnline)
	return err
}

func (r *PsychicRepo) FindByID(ctx context.Context, qx any, id string) (*model.PsychicProfile, error) {
	const q = `
SELECT id, agent_id, name, specialty, description, image_url, rating, reviews_count, is_online
  FROM psychics WHERE id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanPsychic(ex.QueryRow(ctx, q, id))
}

func (r *PsychicRepo) List(ctx context.Context, qx any) ([]*model.PsychicProfile, error) {
	const q = `
SELECT id, agent_id, name, specialty, description, image_url, rating, reviews_count, is_online
  FROM psychics ORDER BY name;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectPsychics(rows)
}

func (r *PsychicRepo) ListByAgent(ctx context.Context, qx any, agentID string) ([]*model.PsychicProfile, error) {
	const q = `
SELECT id, agent_id, name, specialty, description, image_url, rating, reviews_count, is_online
  FROM psychics WHERE agent_id=$1 ORDER BY name;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, agentID)
	if err != nil {
		return nil, err
	}
	return collectPsychics(rows)
}

func (r *PsychicRepo) Delete(ctx context.Context, qx any, id string) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM psychics WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectPsychics(rows pgx.Rows) ([]*model.PsychicProfile, error) {
	defer rows.Close()
	var out []*model.PsychicProfile
	for rows.Next() {
		p, err := scanPsychic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPsychic(row pgx.Row) (*model.PsychicProfile, error) {
	var p model.PsychicProfile
	if err := row.Scan(&p.ID, &p.AgentID, &p.Name, &p.Specialty, &p.Description,
		&p.ImageURL, &p.Rating, &p.ReviewsCount, &p.IsOnline); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
