package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/clock"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/memory"
	"oraclia-chat-platform/internal/infra/worker"

	"github.com/rs/zerolog"
)

// testEnv wires the whole use case graph over in-memory repositories and a
// hand-driven clock.
type testEnv struct {
	users    *memory.UserRepo
	convs    *memory.ConversationRepo
	admins   *memory.AdminConversationRepo
	agents   *memory.AgentRepo
	stats    *memory.AgentStatsRepo
	psychics *memory.PsychicRepo
	payments *memory.PaymentRepo
	packs    *memory.MinutePackRepo
	reviews  *memory.ReviewRepo

	bus      *bus.Bus
	clk      *clock.Manual
	notifier *recordingNotifier
	pool     *worker.Pool

	ledger   LedgerUseCase
	chat     *chatUC
	sessions *sessionUC
	presence *presenceUC
	admin    *adminChatUC
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()

	e := &testEnv{
		users:    memory.NewUserRepo(),
		convs:    memory.NewConversationRepo(),
		admins:   memory.NewAdminConversationRepo(),
		agents:   memory.NewAgentRepo(),
		stats:    memory.NewAgentStatsRepo(),
		psychics: memory.NewPsychicRepo(),
		payments: memory.NewPaymentRepo(),
		packs:    memory.NewMinutePackRepo(nil),
		reviews:  memory.NewReviewRepo(),
		clk:      clock.NewManual(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
		notifier: newRecordingNotifier(),
	}
	e.bus = bus.New(NewStoreAppender(e.convs, e.admins), &log)
	e.pool = worker.NewPool(2, &log)
	ctx, cancel := context.WithCancel(context.Background())
	e.pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		e.pool.Stop()
	})

	e.ledger = NewLedgerUseCase(e.users, e.stats, e.payments, &log)
	e.presence = NewPresenceUseCase(e.convs, e.admins, e.notifier, e.pool, bus.NewDedupe(time.Minute, 1024), &log)
	e.chat = NewChatUseCase(e.convs, e.users, e.psychics, e.agents, e.bus, e.presence, &log)
	e.sessions = NewSessionUseCase(e.ledger, e.chat, e.agents, e.clk, nil, &log)
	e.chat.SetSendGate(e.sessions)
	e.admin = NewAdminChatUseCase(e.admins, e.agents, e.bus, e.presence, &log)
	return e
}

// seedClient stores a client with the given minute pools.
func (e *testEnv) seedClient(t *testing.T, id string, free, paid int) *model.User {
	t.Helper()
	u, err := model.NewClient(id, "client-"+id, id+"@example.com")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	u.FreeMinutes = free
	u.PaidMinutes = paid
	if err := e.users.Save(context.Background(), repository.NoTX, u); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return u
}

// seedAgent stores an agent owning one psychic profile and returns both ids.
func (e *testEnv) seedAgent(t *testing.T, agentID, psychicID string) {
	t.Helper()
	ctx := context.Background()
	a, err := model.NewAgent(agentID, "agent-"+agentID)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	p, err := model.NewPsychicProfile(psychicID, agentID, "Psychic "+psychicID, "tarot")
	if err != nil {
		t.Fatalf("NewPsychicProfile: %v", err)
	}
	a.PsychicProfileIDs = append(a.PsychicProfileIDs, psychicID)
	if err := e.agents.Save(ctx, repository.NoTX, a); err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	if err := e.stats.Save(ctx, repository.NoTX, model.NewAgentStats(agentID)); err != nil {
		t.Fatalf("seed agent stats: %v", err)
	}
	if err := e.psychics.Save(ctx, repository.NoTX, p); err != nil {
		t.Fatalf("seed psychic: %v", err)
	}
}

func (e *testEnv) clientBalances(t *testing.T, id string) (int, int) {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), repository.NoTX, id)
	if err != nil {
		t.Fatalf("find client: %v", err)
	}
	return u.FreeMinutes, u.PaidMinutes
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

// ---- Fakes ----

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{}
}

func (n *recordingNotifier) Notify(ctx context.Context, v model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, v)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) last() model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return model.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

type gateDenyAll struct{ err error }

func (g gateDenyAll) CanSend(string) error { return g.err }

type gateAllowAll struct{}

func (gateAllowAll) CanSend(string) error { return nil }
