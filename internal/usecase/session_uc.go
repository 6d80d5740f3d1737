package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"oraclia-chat-platform/internal/clock"
	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time checks
var (
	_ SessionUseCase = (*sessionUC)(nil)
	_ SendGate       = (*sessionUC)(nil)
)

// lowBalanceThreshold is when the one-shot warning fires, in remaining
// seconds across both pools.
const lowBalanceThreshold = 60

type SessionEventType string

const (
	EventTick       SessionEventType = "tick"
	EventLowBalance SessionEventType = "low_balance"
	EventClosed     SessionEventType = "closed"
)

// SessionEvent is what the clock pushes to subscribers every second and on
// state transitions. Usage is only populated on EventClosed.
type SessionEvent struct {
	Type             SessionEventType
	SessionID        string
	RemainingSeconds int
	Usage            model.UsageSplit
}

// Locker is the distributed single-flight guard on session start. It is
// optional; without one, the in-process pair lock is the only guard.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type SessionUseCase interface {
	// StartSession reserves the client's balance, resolves the conversation
	// and starts the metering clock. A second start for the same
	// (client, psychic) pair returns the already running session.
	StartSession(ctx context.Context, clientID, psychicID string) (*model.Session, error)
	// CloseSession is idempotent: the first call settles usage and commits
	// it to the ledger exactly once, later calls return the same split.
	CloseSession(ctx context.Context, sessionID string) (model.UsageSplit, error)
	RemainingSeconds(sessionID string) (int, error)
	// Events returns the session's event stream. The channel is closed after
	// the EventClosed delivery.
	Events(sessionID string) (<-chan SessionEvent, error)
	// CloseIdle closes every active session without send activity for at
	// least idleFor and reports how many it closed.
	CloseIdle(ctx context.Context, idleFor time.Duration) int
	ActiveCount() int
}

type activeSession struct {
	mu      sync.Mutex
	session *model.Session
	ticker  clock.Ticker
	stop    chan struct{}

	closed       bool
	usage        model.UsageSplit
	lowWarned    bool
	lastActivity time.Time

	events       chan SessionEvent
	eventsClosed bool
}

// emit never blocks the clock. A slow subscriber misses ticks only: when the
// buffer is full, low-balance and closed events evict a queued tick so they
// always reach the reader.
func (a *activeSession) emit(ev SessionEvent) {
	if a.eventsClosed {
		return
	}
	select {
	case a.events <- ev:
		return
	default:
	}
	if ev.Type == EventTick {
		return
	}
	var keep []SessionEvent
	for {
		select {
		case old := <-a.events:
			if old.Type != EventTick {
				keep = append(keep, old)
				continue
			}
		default:
		}
		break
	}
	for _, k := range keep {
		a.events <- k
	}
	a.events <- ev
}

// SessionMirror mirrors active session snapshots to an external store so
// other processes can inspect them. Best effort; the in-process clock stays
// authoritative.
type SessionMirror interface {
	StoreSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
}

type sessionUC struct {
	ledger LedgerUseCase
	chat   ChatUseCase
	agents repository.AgentRepository
	clk    clock.Clock
	locker Locker
	mirror SessionMirror

	mu     sync.Mutex
	byID   map[string]*activeSession
	byPair map[string]*activeSession
	byConv map[string]*activeSession

	pairLocks *keyedMutex
	log       *zerolog.Logger
}

func NewSessionUseCase(
	ledger LedgerUseCase,
	chat ChatUseCase,
	agents repository.AgentRepository,
	clk clock.Clock,
	locker Locker,
	logger *zerolog.Logger,
) *sessionUC {
	l := logger.With().Str("component", "session").Logger()
	return &sessionUC{
		ledger:    ledger,
		chat:      chat,
		agents:    agents,
		clk:       clk,
		locker:    locker,
		byID:      make(map[string]*activeSession),
		byPair:    make(map[string]*activeSession),
		byConv:    make(map[string]*activeSession),
		pairLocks: newKeyedMutex(),
		log:       &l,
	}
}

// SetMirror installs the external snapshot store. Optional, call before
// serving traffic.
func (u *sessionUC) SetMirror(m SessionMirror) { u.mirror = m }

func pairKey(clientID, psychicID string) string { return clientID + "/" + psychicID }

func (u *sessionUC) StartSession(ctx context.Context, clientID, psychicID string) (*model.Session, error) {
	if clientID == "" || psychicID == "" {
		return nil, domain.ErrInvalidArgument
	}
	key := pairKey(clientID, psychicID)
	lock := u.pairLocks.Lock(key)
	defer lock.Unlock()

	u.mu.Lock()
	if existing, ok := u.byPair[key]; ok {
		sess := existing.session
		u.mu.Unlock()
		return sess, nil
	}
	u.mu.Unlock()

	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "session:"+key, 10*time.Second)
		if err != nil {
			return nil, domain.ErrActiveSessionExists
		}
		defer func() {
			if err := u.locker.Unlock(ctx, "session:"+key, token); err != nil {
				u.log.Warn().Err(err).Str("pair", key).Msg("session lock release failed")
			}
		}()
	}

	snapshot, err := u.ledger.ReserveSession(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			metrics.IncSessionRejected()
		}
		return nil, err
	}

	conv, err := u.chat.GetOrCreateConversation(ctx, clientID, psychicID)
	if err != nil {
		return nil, err
	}

	agentID := ""
	if agent, err := u.agents.FindByPsychic(ctx, repository.NoTX, psychicID); err == nil {
		agentID = agent.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := u.clk.Now()
	sess, err := model.NewSession(conv.ID, clientID, psychicID, agentID, now, snapshot.FreeSeconds, snapshot.PaidSeconds)
	if err != nil {
		return nil, err
	}

	active := &activeSession{
		session:      sess,
		ticker:       u.clk.NewTicker(time.Second),
		stop:         make(chan struct{}),
		lastActivity: now,
		events:       make(chan SessionEvent, 16),
	}

	u.mu.Lock()
	u.byID[sess.ID] = active
	u.byPair[key] = active
	u.byConv[conv.ID] = active
	u.mu.Unlock()

	go u.run(active)

	if u.mirror != nil {
		if err := u.mirror.StoreSession(ctx, sess); err != nil {
			u.log.Warn().Err(err).Str("session_id", sess.ID).Msg("session mirror store failed")
		}
	}

	metrics.IncSessionStarted()
	metrics.SetActiveSessions(u.ActiveCount())
	u.log.Info().
		Str("session_id", sess.ID).
		Str("client_id", clientID).
		Str("psychic_id", psychicID).
		Int("free_seconds", snapshot.FreeSeconds).
		Int("paid_seconds", snapshot.PaidSeconds).
		Msg("session started")
	return sess, nil
}

// run drives the per-session clock. It exits when the stop channel closes,
// which only settle does.
func (u *sessionUC) run(a *activeSession) {
	for {
		select {
		case <-a.stop:
			return
		case now := <-a.ticker.C():
			u.tick(a, now)
		}
	}
}

func (u *sessionUC) tick(a *activeSession, now time.Time) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	remaining := a.session.RemainingSeconds(now)
	a.emit(SessionEvent{Type: EventTick, SessionID: a.session.ID, RemainingSeconds: remaining})
	if remaining <= lowBalanceThreshold && remaining > 0 && !a.lowWarned {
		a.lowWarned = true
		a.emit(SessionEvent{Type: EventLowBalance, SessionID: a.session.ID, RemainingSeconds: remaining})
	}
	a.mu.Unlock()

	if remaining == 0 {
		if _, err := u.settle(context.Background(), a, "exhausted"); err != nil {
			u.log.Error().Err(err).Str("session_id", a.session.ID).Msg("auto-close settle failed")
		}
	}
}

func (u *sessionUC) CloseSession(ctx context.Context, sessionID string) (model.UsageSplit, error) {
	u.mu.Lock()
	a, ok := u.byID[sessionID]
	u.mu.Unlock()
	if !ok {
		return model.UsageSplit{}, domain.ErrNotFound
	}
	return u.settle(ctx, a, "requested")
}

// settle is the single close path. Whoever flips the closed flag owns the
// ledger commit; everyone else gets the cached split.
func (u *sessionUC) settle(ctx context.Context, a *activeSession, reason string) (model.UsageSplit, error) {
	a.mu.Lock()
	if a.closed {
		usage := a.usage
		a.mu.Unlock()
		return usage, nil
	}
	a.closed = true
	a.session.State = model.SessionClosed
	now := u.clk.Now()
	freeSec, paidSec := a.session.SplitElapsed(now)
	a.ticker.Stop()
	close(a.stop)
	a.mu.Unlock()

	split, err := u.ledger.CommitUsage(ctx, a.session.ClientID, a.session.AgentID, freeSec, paidSec)
	if err != nil {
		// The session stays closed; billing is reconciled out of band.
		u.log.Error().Err(err).Str("session_id", a.session.ID).Msg("usage commit failed")
		split = model.UsageSplit{
			FreeMinutesUsed: model.CeilMinutes(freeSec),
			PaidMinutesUsed: model.CeilMinutes(paidSec),
		}
	}

	a.mu.Lock()
	a.usage = split
	a.emit(SessionEvent{Type: EventClosed, SessionID: a.session.ID, Usage: split})
	a.eventsClosed = true
	close(a.events)
	a.mu.Unlock()

	u.mu.Lock()
	delete(u.byPair, pairKey(a.session.ClientID, a.session.PsychicID))
	delete(u.byConv, a.session.ConversationID)
	u.mu.Unlock()

	if u.mirror != nil {
		if err := u.mirror.DeleteSession(ctx, a.session.ID); err != nil {
			u.log.Warn().Err(err).Str("session_id", a.session.ID).Msg("session mirror delete failed")
		}
	}

	metrics.IncSessionClosed(reason)
	metrics.SetActiveSessions(u.ActiveCount())
	u.log.Info().
		Str("session_id", a.session.ID).
		Str("reason", reason).
		Int("free_minutes", split.FreeMinutesUsed).
		Int("paid_minutes", split.PaidMinutesUsed).
		Msg("session closed")
	return split, err
}

func (u *sessionUC) RemainingSeconds(sessionID string) (int, error) {
	u.mu.Lock()
	a, ok := u.byID[sessionID]
	u.mu.Unlock()
	if !ok {
		return 0, domain.ErrNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, nil
	}
	return a.session.RemainingSeconds(u.clk.Now()), nil
}

func (u *sessionUC) Events(sessionID string) (<-chan SessionEvent, error) {
	u.mu.Lock()
	a, ok := u.byID[sessionID]
	u.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.events, nil
}

// CanSend gates chat sends on a live session for the conversation and counts
// as activity for the idle reaper.
func (u *sessionUC) CanSend(conversationID string) error {
	u.mu.Lock()
	a, ok := u.byConv[conversationID]
	u.mu.Unlock()
	if !ok {
		return domain.ErrSessionClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return domain.ErrSessionClosed
	}
	now := u.clk.Now()
	if a.session.RemainingSeconds(now) <= 0 {
		// Exhausted but the closing tick has not landed yet.
		return domain.ErrSessionClosed
	}
	a.lastActivity = now
	return nil
}

func (u *sessionUC) CloseIdle(ctx context.Context, idleFor time.Duration) int {
	cutoff := u.clk.Now().Add(-idleFor)

	u.mu.Lock()
	stale := make([]*activeSession, 0)
	for _, a := range u.byID {
		a.mu.Lock()
		if !a.closed && a.lastActivity.Before(cutoff) {
			stale = append(stale, a)
		}
		a.mu.Unlock()
	}
	u.mu.Unlock()

	closed := 0
	for _, a := range stale {
		if _, err := u.settle(ctx, a, "idle"); err != nil {
			u.log.Error().Err(err).Str("session_id", a.session.ID).Msg("idle close settle failed")
			continue
		}
		closed++
	}
	return closed
}

func (u *sessionUC) ActiveCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byPair)
}
