//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewUserRepo(testPool)
	ctx := context.Background()

	t.Run("should perform full CRUD cycle", func(t *testing.T) {
		cleanup(t)

		u, err := model.NewClient("", "marie", "marie@example.com")
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		u.FreeMinutes = 5
		u.ToggleFavorite("p1")
		if err := repo.Save(ctx, nil, u); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, u.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Username != "marie" || got.FreeMinutes != 5 {
			t.Fatalf("roundtrip mismatch: %+v", got)
		}
		if _, ok := got.FavoritePsychicIDs["p1"]; !ok {
			t.Fatalf("favorites lost in roundtrip")
		}

		if err := repo.Delete(ctx, nil, u.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, u.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("should update both pools atomically", func(t *testing.T) {
		cleanup(t)

		u, err := model.NewClient("", "paul", "paul@example.com")
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		u.FreeMinutes, u.PaidMinutes = 5, 10
		if err := repo.Save(ctx, nil, u); err != nil {
			t.Fatalf("Save: %v", err)
		}

		if err := repo.UpdateBalances(ctx, nil, u.ID, 0, 8); err != nil {
			t.Fatalf("UpdateBalances: %v", err)
		}
		got, err := repo.FindByID(ctx, nil, u.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.FreeMinutes != 0 || got.PaidMinutes != 8 {
			t.Fatalf("balances = %d/%d, want 0/8", got.FreeMinutes, got.PaidMinutes)
		}

		if err := repo.UpdateBalances(ctx, nil, "missing", 1, 1); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("should count clients only", func(t *testing.T) {
		cleanup(t)

		for _, name := range []string{"a", "b"} {
			u, _ := model.NewClient("", name, name+"@example.com")
			if err := repo.Save(ctx, nil, u); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}
		n, err := repo.CountClients(ctx, nil)
		if err != nil {
			t.Fatalf("CountClients: %v", err)
		}
		if n != 2 {
			t.Fatalf("count = %d, want 2", n)
		}
	})
}
