package memory

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.PsychicRepository = (*PsychicRepo)(nil)

type PsychicRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PsychicProfile
}

func NewPsychicRepo() *PsychicRepo {
	return &PsychicRepo{store: make(map[string]*model.PsychicProfile)}
}

func (r *PsychicRepo) Save(ctx context.Context, qx any, p *model.PsychicProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.store[p.ID] = &cp
	return nil
}

func (r *PsychicRepo) FindByID(ctx context.Context, qx any, id string) (*model.PsychicProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PsychicRepo) List(ctx context.Context, qx any) ([]*model.PsychicProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.PsychicProfile
	for _, p := range r.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PsychicRepo) ListByAgent(ctx context.Context, qx any, agentID string) ([]*model.PsychicProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.PsychicProfile
	for _, p := range r.store {
		if p.AgentID == agentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *PsychicRepo) Delete(ctx context.Context, qx any, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store, id)
	return nil
}
