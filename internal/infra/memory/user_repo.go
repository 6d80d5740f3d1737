// Package memory holds mutex-guarded in-memory implementations of every
// repository port. They back the dev-mode bootstrap and the unit tests; the
// Postgres adapters satisfy the same contracts for production.
package memory

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{store: make(map[string]*model.User)}
}

func copyUser(u *model.User) *model.User {
	cp := *u
	if u.FavoritePsychicIDs != nil {
		cp.FavoritePsychicIDs = make(map[string]struct{}, len(u.FavoritePsychicIDs))
		for id := range u.FavoritePsychicIDs {
			cp.FavoritePsychicIDs[id] = struct{}{}
		}
	}
	return &cp
}

func (r *UserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[u.ID] = copyUser(u)
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, qx any, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, qx any, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.store {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepo) List(ctx context.Context, qx any, role model.Role) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.User
	for _, u := range r.store {
		if role == "" || u.Role == role {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *UserRepo) CountClients(ctx context.Context, qx any) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, u := range r.store {
		if u.Role == model.RoleClient {
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) UpdateBalances(ctx context.Context, qx any, clientID string, freeMinutes, paidMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.store[clientID]
	if !ok {
		return domain.ErrNotFound
	}
	u.FreeMinutes = freeMinutes
	u.PaidMinutes = paidMinutes
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, qx any, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store, id)
	return nil
}
