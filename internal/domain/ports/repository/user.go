package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Users (clients and admins)
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, qx any, u *model.User) error
	FindByID(ctx context.Context, qx any, id string) (*model.User, error)
	FindByUsername(ctx context.Context, qx any, username string) (*model.User, error)
	List(ctx context.Context, qx any, role model.Role) ([]*model.User, error)
	CountClients(ctx context.Context, qx any) (int, error)
	// UpdateBalances overwrites both pools atomically with respect to other
	// balance writers for the same client.
	UpdateBalances(ctx context.Context, qx any, clientID string, freeMinutes, paidMinutes int) error
	Delete(ctx context.Context, qx any, id string) error
}
