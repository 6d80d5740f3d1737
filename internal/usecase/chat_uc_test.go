package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

func TestGetOrCreateConversationSeedsOpeningMessage(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	conv, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d, want the single opening message", len(conv.Messages))
	}
	if conv.Messages[0].Sender != model.RoleAgent {
		t.Fatalf("opening sender = %s, want agent", conv.Messages[0].Sender)
	}
}

func TestGetOrCreateConversationIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	first, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
			if err != nil {
				t.Errorf("concurrent get: %v", err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != first.ID {
			t.Fatalf("got a second conversation %s, want %s", id, first.ID)
		}
	}

	list, err := e.chat.ListForClient(ctx, "c1")
	if err != nil {
		t.Fatalf("ListForClient: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("conversations = %d, want exactly one per pair", len(list))
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	e := newTestEnv(t)
	e.chat.SetSendGate(gateAllowAll{})

	_, err := e.chat.SendMessage(context.Background(), "nope", model.RoleClient, "hello")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendMessageRequiresOpenSession(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	conv, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	e.chat.SetSendGate(gateDenyAll{err: domain.ErrSessionClosed})

	_, err = e.chat.SendMessage(ctx, conv.ID, model.RoleClient, "anyone there?")
	if !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

func TestSendMessagePublishesToSubscribersAndStore(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	e.chat.SetSendGate(gateAllowAll{})
	ctx := context.Background()

	conv, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}

	var got []*model.Message
	e.bus.Subscribe(conv.ID, func(_ string, m *model.Message) {
		got = append(got, m)
	})

	sent, err := e.chat.SendMessage(ctx, conv.ID, model.RoleClient, "bonjour")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(got) != 1 || got[0].ID != sent.ID {
		t.Fatalf("listener saw %d messages", len(got))
	}

	stored, err := e.convs.FindByID(ctx, repository.NoTX, conv.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if last := stored.LastMessage(); last == nil || last.ID != sent.ID {
		t.Fatalf("store missing the published message")
	}
}

func TestSendMessageMarksRecipientUnread(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedAgent(t, "a1", "p1")
	e.chat.SetSendGate(gateAllowAll{})
	ctx := context.Background()

	conv, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if _, err := e.chat.SendMessage(ctx, conv.ID, model.RoleClient, "bonjour"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	stored, err := e.convs.FindByID(ctx, repository.NoTX, conv.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !stored.UnreadForAgent {
		t.Fatalf("agent unread not set")
	}
	if stored.UnreadForClient {
		t.Fatalf("sender's own side marked unread")
	}

	if err := e.chat.MarkConversationRead(ctx, conv.ID, model.RoleAgent); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	stored, _ = e.convs.FindByID(ctx, repository.NoTX, conv.ID)
	if stored.UnreadForAgent {
		t.Fatalf("unread not cleared")
	}
}

func TestListForAgentCoversOwnedPsychics(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 0)
	e.seedClient(t, "c2", 5, 0)
	e.seedAgent(t, "a1", "p1")
	e.seedAgent(t, "a2", "p2")
	ctx := context.Background()

	if _, err := e.chat.GetOrCreateConversation(ctx, "c1", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.chat.GetOrCreateConversation(ctx, "c2", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.chat.GetOrCreateConversation(ctx, "c1", "p2"); err != nil {
		t.Fatal(err)
	}

	list, err := e.chat.ListForAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("ListForAgent: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("conversations = %d, want 2", len(list))
	}
	for _, c := range list {
		if c.PsychicID != "p1" {
			t.Fatalf("leaked conversation for %s", c.PsychicID)
		}
	}
}
