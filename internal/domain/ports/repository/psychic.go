package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Psychic profiles
// -----------------------------

type PsychicRepository interface {
	Save(ctx context.Context, qx any, p *model.PsychicProfile) error
	FindByID(ctx context.Context, qx any, id string) (*model.PsychicProfile, error)
	List(ctx context.Context, qx any) ([]*model.PsychicProfile, error)
	ListByAgent(ctx context.Context, qx any, agentID string) ([]*model.PsychicProfile, error)
	Delete(ctx context.Context, qx any, id string) error
}
