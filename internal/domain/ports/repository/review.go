package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Reviews
// -----------------------------

type ReviewRepository interface {
	Save(ctx context.Context, qx any, r *model.Review) error
	List(ctx context.Context, qx any) ([]*model.Review, error)
	ListByPsychic(ctx context.Context, qx any, psychicID string) ([]*model.Review, error)
	Delete(ctx context.Context, qx any, id string) error
}
