package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	const q = `
INSERT INTO users (
  id, username, email, role, signup_date, last_active_at,
  free_minutes, paid_minutes, favorite_psychic_ids
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  username=$2, email=$3, role=$4, last_active_at=$6,
  free_minutes=$7, paid_minutes=$8, favorite_psychic_ids=$9;
`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		u.ID, u.Username, u.Email, string(u.Role), u.SignupDate, u.LastActiveAt,
		u.FreeMinutes, u.PaidMinutes, favoritesSlice(u))
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, qx any, id string) (*model.User, error) {
	const q = `
SELECT id, username, email, role, signup_date, last_active_at,
       free_minutes, paid_minutes, favorite_psychic_ids
  FROM users WHERE id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanUser(ex.QueryRow(ctx, q, id))
}

func (r *UserRepo) FindByUsername(ctx context.Context, qx any, username string) (*model.User, error) {
	const q = `
SELECT id, username, email, role, signup_date, last_active_at,
       free_minutes, paid_minutes, favorite_psychic_ids
  FROM users WHERE username=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanUser(ex.QueryRow(ctx, q, username))
}

func (r *UserRepo) List(ctx context.Context, qx any, role model.Role) ([]*model.User, error) {
	const q = `
SELECT id, username, email, role, signup_date, last_active_at,
       free_minutes, paid_minutes, favorite_psychic_ids
  FROM users WHERE ($1 = '' OR role=$1) ORDER BY signup_date;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) CountClients(ctx context.Context, qx any) (int, error) {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role=$1;`, string(model.RoleClient)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *UserRepo) UpdateBalances(ctx context.Context, qx any, clientID string, freeMinutes, paidMinutes int) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET free_minutes=$2, paid_minutes=$3 WHERE id=$1;`, clientID, freeMinutes, paidMinutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, qx any, id string) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM users WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func favoritesSlice(u *model.User) []string {
	out := make([]string, 0, len(u.FavoritePsychicIDs))
	for id := range u.FavoritePsychicIDs {
		out = append(out, id)
	}
	return out
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	var favorites []string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &u.SignupDate, &u.LastActiveAt,
		&u.FreeMinutes, &u.PaidMinutes, &favorites); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.FavoritePsychicIDs = make(map[string]struct{}, len(favorites))
	for _, id := range favorites {
		u.FavoritePsychicIDs[id] = struct{}{}
	}
	return &u, nil
}
