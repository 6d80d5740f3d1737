//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
)

func TestConversationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewConversationRepo(testPool)
	ctx := context.Background()

	t.Run("should keep messages in send order", func(t *testing.T) {
		cleanup(t)

		conv, err := model.NewConversation("c1", "p1")
		if err != nil {
			t.Fatalf("NewConversation: %v", err)
		}
		if err := repo.Save(ctx, nil, conv); err != nil {
			t.Fatalf("Save: %v", err)
		}

		var ids []string
		for _, text := range []string{"un", "deux", "trois"} {
			m, err := model.NewMessage(model.RoleClient, text)
			if err != nil {
				t.Fatalf("NewMessage: %v", err)
			}
			if err := repo.AppendMessage(ctx, nil, conv.ID, m); err != nil {
				t.Fatalf("AppendMessage: %v", err)
			}
			ids = append(ids, m.ID)
		}

		got, err := repo.FindByID(ctx, nil, conv.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if len(got.Messages) != 3 {
			t.Fatalf("messages = %d, want 3", len(got.Messages))
		}
		for i, m := range got.Messages {
			if m.ID != ids[i] {
				t.Fatalf("order broken at %d: %s != %s", i, m.ID, ids[i])
			}
		}
	})

	t.Run("should enforce one conversation per pair", func(t *testing.T) {
		cleanup(t)

		first, _ := model.NewConversation("c1", "p1")
		if err := repo.Save(ctx, nil, first); err != nil {
			t.Fatalf("Save: %v", err)
		}
		dup, _ := model.NewConversation("c1", "p1")
		if err := repo.Save(ctx, nil, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}

		got, err := repo.FindByPair(ctx, nil, "c1", "p1")
		if err != nil {
			t.Fatalf("FindByPair: %v", err)
		}
		if got.ID != first.ID {
			t.Fatalf("pair resolves to %s, want %s", got.ID, first.ID)
		}
	})

	t.Run("should reject appends to unknown conversations", func(t *testing.T) {
		cleanup(t)

		m, _ := model.NewMessage(model.RoleClient, "perdu")
		if err := repo.AppendMessage(ctx, nil, "missing", m); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("should track unread per viewer", func(t *testing.T) {
		cleanup(t)

		conv, _ := model.NewConversation("c1", "p1")
		if err := repo.Save(ctx, nil, conv); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.SetUnread(ctx, nil, conv.ID, model.RoleAgent, true); err != nil {
			t.Fatalf("SetUnread: %v", err)
		}
		got, _ := repo.FindByID(ctx, nil, conv.ID)
		if !got.UnreadForAgent || got.UnreadForClient {
			t.Fatalf("unread flags = client %v agent %v", got.UnreadForClient, got.UnreadForAgent)
		}
	})
}
