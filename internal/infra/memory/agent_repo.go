package memory

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.AgentRepository = (*AgentRepo)(nil)

type AgentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Agent
}

func NewAgentRepo() *AgentRepo {
	return &AgentRepo{store: make(map[string]*model.Agent)}
}

func copyAgent(a *model.Agent) *model.Agent {
	cp := *a
	cp.PsychicProfileIDs = append([]string(nil), a.PsychicProfileIDs...)
	return &cp
}

func (r *AgentRepo) Save(ctx context.Context, qx any, a *model.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[a.ID] = copyAgent(a)
	return nil
}

func (r *AgentRepo) FindByID(ctx context.Context, qx any, id string) (*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAgent(a), nil
}

func (r *AgentRepo) FindByPsychic(ctx context.Context, qx any, psychicID string) (*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.store {
		if a.OwnsPsychic(psychicID) {
			return copyAgent(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AgentRepo) List(ctx context.Context, qx any) ([]*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Agent
	for _, a := range r.store {
		out = append(out, copyAgent(a))
	}
	return out, nil
}

var _ repository.AgentStatsRepository = (*AgentStatsRepo)(nil)

type AgentStatsRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AgentStats
}

func NewAgentStatsRepo() *AgentStatsRepo {
	return &AgentStatsRepo{store: make(map[string]*model.AgentStats)}
}

func copyStats(s *model.AgentStats) *model.AgentStats {
	cp := *s
	cp.ActivityData = append([]model.AgentActivity(nil), s.ActivityData...)
	return &cp
}

func (r *AgentStatsRepo) Save(ctx context.Context, qx any, s *model.AgentStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[s.AgentID] = copyStats(s)
	return nil
}

func (r *AgentStatsRepo) FindByAgent(ctx context.Context, qx any, agentID string) (*model.AgentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.store[agentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyStats(s), nil
}

func (r *AgentStatsRepo) List(ctx context.Context, qx any) ([]*model.AgentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.AgentStats
	for _, s := range r.store {
		out = append(out, copyStats(s))
	}
	return out, nil
}
