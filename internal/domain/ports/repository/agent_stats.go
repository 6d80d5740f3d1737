package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Agents and their stats
// -----------------------------

type AgentRepository interface {
	Save(ctx context.Context, qx any, a *model.Agent) error
	FindByID(ctx context.Context, qx any, id string) (*model.Agent, error)
	// FindByPsychic resolves the owning agent of a psychic profile.
	FindByPsychic(ctx context.Context, qx any, psychicID string) (*model.Agent, error)
	List(ctx context.Context, qx any) ([]*model.Agent, error)
}

type AgentStatsRepository interface {
	Save(ctx context.Context, qx any, s *model.AgentStats) error
	FindByAgent(ctx context.Context, qx any, agentID string) (*model.AgentStats, error)
	List(ctx context.Context, qx any) ([]*model.AgentStats, error)
}
