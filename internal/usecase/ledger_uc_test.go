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

func TestReserveSessionSnapshotsBothPools(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)

	snap, err := e.ledger.ReserveSession(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ReserveSession: %v", err)
	}
	if snap.FreeSeconds != 300 || snap.PaidSeconds != 600 {
		t.Fatalf("snapshot = %+v, want 300/600", snap)
	}
}

func TestReserveSessionInsufficientBalance(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 0, 0)

	_, err := e.ledger.ReserveSession(context.Background(), "c1")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestCommitUsageDebitsFreePoolFirst(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)
	e.seedAgent(t, "a1", "p1")

	// 7 minutes of chat: the free pool covers the first 5, paid the rest.
	split, err := e.ledger.CommitUsage(context.Background(), "c1", "a1", 300, 120)
	if err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if split.FreeMinutesUsed != 5 || split.PaidMinutesUsed != 2 {
		t.Fatalf("split = %+v, want 5 free / 2 paid", split)
	}
	free, paid := e.clientBalances(t, "c1")
	if free != 0 || paid != 8 {
		t.Fatalf("balances = %d/%d, want 0/8", free, paid)
	}
}

func TestCommitUsageRoundsEachPoolUp(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)

	split, err := e.ledger.CommitUsage(context.Background(), "c1", "", 90, 30)
	if err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if split.FreeMinutesUsed != 2 || split.PaidMinutesUsed != 1 {
		t.Fatalf("split = %+v, want 2 free / 1 paid", split)
	}
}

func TestCommitUsageZeroIsNoop(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 5, 10)

	split, err := e.ledger.CommitUsage(context.Background(), "c1", "a1", 0, 0)
	if err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if split.FreeMinutesUsed != 0 || split.PaidMinutesUsed != 0 {
		t.Fatalf("split = %+v, want zero", split)
	}
	free, paid := e.clientBalances(t, "c1")
	if free != 5 || paid != 10 {
		t.Fatalf("balances changed: %d/%d", free, paid)
	}
}

func TestCommitUsageClampsBalancesAtZero(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 1, 0)

	// Over-commit relative to the live balance must never go negative.
	if _, err := e.ledger.CommitUsage(context.Background(), "c1", "", 300, 0); err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	free, paid := e.clientBalances(t, "c1")
	if free != 0 || paid != 0 {
		t.Fatalf("balances = %d/%d, want 0/0", free, paid)
	}
}

func TestCommitUsageCreditsAgentStats(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 10, 10)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	if _, err := e.ledger.CommitUsage(ctx, "c1", "a1", 120, 60); err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if _, err := e.ledger.CommitUsage(ctx, "c1", "a1", 60, 0); err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}

	stats, err := e.stats.FindByAgent(ctx, repository.NoTX, "a1")
	if err != nil {
		t.Fatalf("FindByAgent: %v", err)
	}
	if stats.FreeMinutes != 3 || stats.PaidMinutes != 1 {
		t.Fatalf("totals = %d free / %d paid, want 3/1", stats.FreeMinutes, stats.PaidMinutes)
	}
	if len(stats.ActivityData) != 1 {
		t.Fatalf("activity buckets = %d, want one per day", len(stats.ActivityData))
	}
	if b := stats.ActivityData[0]; b.Free != 3 || b.Paid != 1 {
		t.Fatalf("day bucket = %+v", b)
	}
}

func TestAgentStatsRowExistsFromCreation(t *testing.T) {
	e := newTestEnv(t)
	e.seedAgent(t, "a1", "p1")
	ctx := context.Background()

	// The row is written with the agent, before any consultation happens.
	stats, err := e.stats.FindByAgent(ctx, repository.NoTX, "a1")
	if err != nil {
		t.Fatalf("FindByAgent: %v", err)
	}
	if stats.FreeMinutes != 0 || stats.PaidMinutes != 0 {
		t.Fatalf("fresh totals = %d/%d, want 0/0", stats.FreeMinutes, stats.PaidMinutes)
	}
	if len(stats.ActivityData) != 0 {
		t.Fatalf("fresh activity buckets = %d, want none", len(stats.ActivityData))
	}
}

func TestCreditPurchaseAddsPaidMinutesAndRecordsPayment(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 2, 0)
	ctx := context.Background()

	pack := model.MinutePack{ID: 2, Minutes: 15, Price: 4500}
	free, paid, err := e.ledger.CreditPurchase(ctx, "c1", pack)
	if err != nil {
		t.Fatalf("CreditPurchase: %v", err)
	}
	if free != 2 || paid != 15 {
		t.Fatalf("balances = %d/%d, want 2/15", free, paid)
	}

	history, err := e.payments.ListByClient(ctx, repository.NoTX, "c1")
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Minutes != 15 || history[0].Amount != 4500 {
		t.Fatalf("record = %+v", history[0])
	}
}

func TestCreditFreeGrantConcurrent(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "c1", 0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.ledger.CreditFreeGrant(context.Background(), "c1", 1); err != nil {
				t.Errorf("CreditFreeGrant: %v", err)
			}
		}()
	}
	wg.Wait()

	free, _ := e.clientBalances(t, "c1")
	if free != 50 {
		t.Fatalf("free = %d, want 50", free)
	}
}
