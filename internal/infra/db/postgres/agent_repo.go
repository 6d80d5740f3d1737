package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var (
	_ repository.AgentRepository      = (*AgentRepo)(nil)
	_ repository.AgentStatsRepository = (*AgentStatsRepo)(nil)
)

type AgentRepo struct {
	pool *pgxpool.Pool
}

func NewAgentRepo(pool *pgxpool.Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

func (r *AgentRepo) Save(ctx context.Context, qx any, a *model.Agent) error {
	const q = `
INSERT INTO agents (id, username, created_at, is_online)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET username=$2, is_online=$4;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, a.ID, a.Username, a.CreationDate, a.IsOnline)
	return err
}

func (r *AgentRepo) FindByID(ctx context.Context, qx any, id string) (*model.Agent, error) {
	const q = `
SELECT a.id, a.username, a.created_at, a.is_online,
       COALESCE(ARRAY_AGG(p.id) FILTER (WHERE p.id IS NOT NULL), '{}')
  FROM agents a LEFT JOIN psychics p ON p.agent_id = a.id
 WHERE a.id=$1 GROUP BY a.id;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanAgent(ex.QueryRow(ctx, q, id))
}

func (r *AgentRepo) FindByPsychic(ctx context.Context, qx any, psychicID string) (*model.Agent, error) {
	const q = `
SELECT a.id, a.username, a.created_at, a.is_online,
       COALESCE(ARRAY_AGG(p2.id) FILTER (WHERE p2.id IS NOT NULL), '{}')
  FROM psychics p
  JOIN agents a ON a.id = p.agent_id
  LEFT JOIN psychics p2 ON p2.agent_id = a.id
 WHERE p.id=$1 GROUP BY a.id;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanAgent(ex.QueryRow(ctx, q, psychicID))
}

func (r *AgentRepo) List(ctx context.Context, qx any) ([]*model.Agent, error) {
	const q = `
SELECT a.id, a.username, a.created_at, a.is_online,
       COALESCE(ARRAY_AGG(p.id) FILTER (WHERE p.id IS NOT NULL), '{}')
  FROM agents a LEFT JOIN psychics p ON p.agent_id = a.id
 GROUP BY a.id ORDER BY a.created_at;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row pgx.Row) (*model.Agent, error) {
	var a model.Agent
	if err := row.Scan(&a.ID, &a.Username, &a.CreationDate, &a.IsOnline, &a.PsychicProfileIDs); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// AgentStatsRepo stores cumulative totals in columns and the per-day buckets
// as a JSONB document; the write volume (one commit per session close) does
// not justify a separate table.
type AgentStatsRepo struct {
	pool *pgxpool.Pool
}

func NewAgentStatsRepo(pool *pgxpool.Pool) *AgentStatsRepo {
	return &AgentStatsRepo{pool: pool}
}

func (r *AgentStatsRepo) Save(ctx context.Context, qx any, s *model.AgentStats) error {
	const q = `
INSERT INTO agent_stats (agent_id, paid_minutes, free_minutes, activity)
VALUES ($1,$2,$3,$4)
ON CONFLICT (agent_id) DO UPDATE SET paid_minutes=$2, free_minutes=$3, activity=$4;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	activity, err := json.Marshal(s.ActivityData)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, s.AgentID, s.PaidMinutes, s.FreeMinutes, activity)
	return err
}

func (r *AgentStatsRepo) FindByAgent(ctx context.Context, qx any, agentID string) (*model.AgentStats, error) {
	const q = `SELECT agent_id, paid_minutes, free_minutes, activity FROM agent_stats WHERE agent_id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return scanStats(ex.QueryRow(ctx, q, agentID))
}

func (r *AgentStatsRepo) List(ctx context.Context, qx any) ([]*model.AgentStats, error) {
	const q = `SELECT agent_id, paid_minutes, free_minutes, activity FROM agent_stats ORDER BY agent_id;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AgentStats
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStats(row pgx.Row) (*model.AgentStats, error) {
	var s model.AgentStats
	var activity []byte
	if err := row.Scan(&s.AgentID, &s.PaidMinutes, &s.FreeMinutes, &activity); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(activity) > 0 {
		if err := json.Unmarshal(activity, &s.ActivityData); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
