package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Payments (minute pack purchases)
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, qx any, p *model.PaymentRecord) error
	ListByClient(ctx context.Context, qx any, clientID string) ([]*model.PaymentRecord, error)
	SumByPeriod(ctx context.Context, qx any, period string) (int64, error)
}

type MinutePackRepository interface {
	FindByID(ctx context.Context, qx any, id int) (*model.MinutePack, error)
	List(ctx context.Context, qx any) ([]*model.MinutePack, error)
}
