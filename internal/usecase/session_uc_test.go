package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"oraclia-chat-platform/internal/domain"
)

func TestStartSessionSnapshotsBalance(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)
	e.seedAgent(t, "a1", "p1")

	sess, err := e.sessions.StartSession(context.Background(), "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.InitialFreeSeconds != 300 || sess.InitialPaidSeconds != 600 {
		t.Fatalf("snapshot = %d/%d, want 300/600", sess.InitialFreeSeconds, sess.InitialPaidSeconds)
	}
	if sess.AgentID != "a1" {
		t.Fatalf("agent = %q, want a1", sess.AgentID)
	}

	remaining, err := e.sessions.RemainingSeconds(sess.ID)
	if err != nil {
		t.Fatalf("RemainingSeconds: %v", err)
	}
	if remaining != 900 {
		t.Fatalf("remaining = %d, want 900", remaining)
	}
}

func TestStartSessionInsufficientBalance(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 0, 0)
	e.seedAgent(t, "a1", "p1")

	_, err := e.sessions.StartSession(context.Background(), "c1", "p1")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if n := e.sessions.ActiveCount(); n != 0 {
		t.Fatalf("active = %d, want 0", n)
	}
}

func TestStartSessionReturnsRunningSessionForSamePair(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	first, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second start created a new session")
	}
	if n := e.sessions.ActiveCount(); n != 1 {
		t.Fatalf("active = %d, want 1", n)
	}
}

func TestCloseSessionSettlesOnceAndIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	e.clk.Advance(7 * time.Minute)
	split, err := e.sessions.CloseSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if split.FreeMinutesUsed != 5 || split.PaidMinutesUsed != 2 {
		t.Fatalf("split = %+v, want 5 free / 2 paid", split)
	}

	again, err := e.sessions.CloseSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if again != split {
		t.Fatalf("second close split = %+v, want cached %+v", again, split)
	}

	// One commit total: balances reflect a single 7-minute debit.
	free, paid := e.clientBalances(t, "c1")
	if free != 0 || paid != 8 {
		t.Fatalf("balances = %d/%d, want 0/8", free, paid)
	}
	if n := e.sessions.ActiveCount(); n != 0 {
		t.Fatalf("active = %d after close", n)
	}
}

func TestSessionAutoClosesOnExhaustion(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 1, 1)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	e.clk.Advance(119 * time.Second)
	time.Sleep(50 * time.Millisecond)
	e.clk.Advance(2 * time.Second)
	waitFor(t, 2*time.Second, func() bool {
		return e.sessions.ActiveCount() == 0
	})

	// Elapsed clamps to the snapshot; the client owes at most what they had.
	split, err := e.sessions.CloseSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if split.FreeMinutesUsed != 1 || split.PaidMinutesUsed != 1 {
		t.Fatalf("split = %+v, want 1/1", split)
	}
	free, paid := e.clientBalances(t, "c1")
	if free != 0 || paid != 0 {
		t.Fatalf("balances = %d/%d, want 0/0", free, paid)
	}
}

func TestSessionEmitsLowBalanceWarningOnce(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 2, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	events, err := e.sessions.Events(sess.ID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	warnings := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Type == EventLowBalance {
				warnings++
				if ev.RemainingSeconds > lowBalanceThreshold {
					t.Errorf("warning at %ds remaining", ev.RemainingSeconds)
				}
			}
		}
	}()

	// Past the threshold, then further ticks that must not warn again.
	e.clk.Advance(65 * time.Second)
	time.Sleep(50 * time.Millisecond)
	e.clk.Advance(10 * time.Second)
	time.Sleep(50 * time.Millisecond)

	if _, err := e.sessions.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	<-done

	if warnings != 1 {
		t.Fatalf("warnings = %d, want exactly one", warnings)
	}
}

func TestStalledReaderStillSeesWarningAndClose(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 2, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	events, err := e.sessions.Events(sess.ID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	// Nobody reads while enough ticks pile up to fill the buffer and the
	// balance crosses the warning threshold.
	e.clk.Advance(65 * time.Second)
	time.Sleep(100 * time.Millisecond)

	if _, err := e.sessions.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	warnings, closes := 0, 0
	var last SessionEventType
	for ev := range events {
		last = ev.Type
		switch ev.Type {
		case EventLowBalance:
			warnings++
		case EventClosed:
			closes++
		}
	}
	if warnings != 1 {
		t.Fatalf("warnings = %d, want 1", warnings)
	}
	if closes != 1 {
		t.Fatalf("closed events = %d, want 1", closes)
	}
	if last != EventClosed {
		t.Fatalf("last event = %s, want %s", last, EventClosed)
	}
}

func TestEventsStreamClosesWithSession(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	events, err := e.sessions.Events(sess.ID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	if _, err := e.sessions.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	var sawClosed bool
	for ev := range events {
		if ev.Type == EventClosed {
			sawClosed = true
		}
	}
	if !sawClosed {
		t.Fatalf("EventClosed never delivered")
	}
}

func TestCanSendGatesOnSessionState(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	if err := e.sessions.CanSend("unknown-conv"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("no session: err = %v, want ErrSessionClosed", err)
	}

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := e.sessions.CanSend(sess.ConversationID); err != nil {
		t.Fatalf("active session: %v", err)
	}

	if _, err := e.sessions.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if err := e.sessions.CanSend(sess.ConversationID); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("closed session: err = %v, want ErrSessionClosed", err)
	}
}

func TestCanSendRejectsExhaustedBalance(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 1, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	sess, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := e.sessions.CanSend(sess.ConversationID); err != nil {
		t.Fatalf("funded session: %v", err)
	}

	// Past the balance. Whether or not the closing tick has landed yet,
	// the gate must already refuse.
	e.clk.Advance(90 * time.Second)
	if err := e.sessions.CanSend(sess.ConversationID); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("exhausted session: err = %v, want ErrSessionClosed", err)
	}
}

func TestCloseIdleReapsInactiveSessions(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 30, 30)
	e.seedClient(t, "c2", 30, 30)
	e.seedAgent(t, "a1", "p1")
	e.seedAgent(t, "a2", "p2")
	ctx := context.Background()

	s1, err := e.sessions.StartSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("StartSession c1: %v", err)
	}
	if _, err := e.sessions.StartSession(ctx, "c2", "p2"); err != nil {
		t.Fatalf("StartSession c2: %v", err)
	}

	e.clk.Advance(6 * time.Minute)
	// c1 keeps talking, c2 goes quiet.
	if err := e.sessions.CanSend(s1.ConversationID); err != nil {
		t.Fatalf("CanSend: %v", err)
	}

	closed := e.sessions.CloseIdle(ctx, 5*time.Minute)
	if closed != 1 {
		t.Fatalf("closed = %d, want 1", closed)
	}
	if n := e.sessions.ActiveCount(); n != 1 {
		t.Fatalf("active = %d, want the touched session only", n)
	}
}
