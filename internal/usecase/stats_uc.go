package usecase

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Dashboard is the back-office overview snapshot.
type Dashboard struct {
	ClientCount    int
	AgentCount     int
	ActiveSessions int
	Revenue        int64 // euro cents for the requested period
}

type StatsUseCase interface {
	Dashboard(ctx context.Context, revenuePeriod string) (Dashboard, error)
	// AgentActivity returns per-agent cumulative and daily billed minutes.
	AgentActivity(ctx context.Context) ([]*model.AgentStats, error)
	AgentActivityFor(ctx context.Context, agentID string) (*model.AgentStats, error)
}

// ActiveSessionCounter is satisfied by the session clock; stats only needs
// the live count.
type ActiveSessionCounter interface {
	ActiveCount() int
}

type statsUC struct {
	users    repository.UserRepository
	agents   repository.AgentRepository
	stats    repository.AgentStatsRepository
	payments repository.PaymentRepository
	sessions ActiveSessionCounter
	log      *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	agents repository.AgentRepository,
	stats repository.AgentStatsRepository,
	payments repository.PaymentRepository,
	sessions ActiveSessionCounter,
	logger *zerolog.Logger,
) *statsUC {
	l := logger.With().Str("component", "stats").Logger()
	return &statsUC{
		users:    users,
		agents:   agents,
		stats:    stats,
		payments: payments,
		sessions: sessions,
		log:      &l,
	}
}

func (u *statsUC) Dashboard(ctx context.Context, revenuePeriod string) (Dashboard, error) {
	clients, err := u.users.CountClients(ctx, repository.NoTX)
	if err != nil {
		return Dashboard{}, err
	}
	agents, err := u.agents.List(ctx, repository.NoTX)
	if err != nil {
		return Dashboard{}, err
	}
	revenue, err := u.payments.SumByPeriod(ctx, repository.NoTX, revenuePeriod)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		ClientCount: clients,
		AgentCount:  len(agents),
		Revenue:     revenue,
	}
	if u.sessions != nil {
		d.ActiveSessions = u.sessions.ActiveCount()
	}
	return d, nil
}

func (u *statsUC) AgentActivity(ctx context.Context) ([]*model.AgentStats, error) {
	return u.stats.List(ctx, repository.NoTX)
}

func (u *statsUC) AgentActivityFor(ctx context.Context, agentID string) (*model.AgentStats, error) {
	return u.stats.FindByAgent(ctx, repository.NoTX, agentID)
}
