package memory

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.ReviewRepository = (*ReviewRepo)(nil)

type ReviewRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Review
	order []string
}

func NewReviewRepo() *ReviewRepo {
	return &ReviewRepo{store: make(map[string]*model.Review)}
}

func (r *ReviewRepo) Save(ctx context.Context, qx any, rev *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[rev.ID]; !ok {
		r.order = append(r.order, rev.ID)
	}
	cp := *rev
	r.store[rev.ID] = &cp
	return nil
}

func (r *ReviewRepo) List(ctx context.Context, qx any) ([]*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Review, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.store[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ReviewRepo) ListByPsychic(ctx context.Context, qx any, psychicID string) ([]*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Review
	for _, id := range r.order {
		if rev := r.store[id]; rev.PsychicID == psychicID {
			cp := *rev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, qx any, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
