package model

import (
	"testing"
	"time"
)

func TestSplitElapsedDrainsFreeFirst(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSession("conv", "client", "psychic", "agent", start, 5*60, 10*60)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// 7 minutes elapsed: 5 free + 2 paid.
	free, paid := s.SplitElapsed(start.Add(420 * time.Second))
	if free != 300 || paid != 120 {
		t.Fatalf("got free=%d paid=%d, want 300/120", free, paid)
	}
}

func TestSplitElapsedClampsToInitialTotal(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := NewSession("conv", "client", "psychic", "agent", start, 2*60, 0)

	free, paid := s.SplitElapsed(start.Add(300 * time.Second))
	if free != 120 || paid != 0 {
		t.Fatalf("got free=%d paid=%d, want 120/0", free, paid)
	}
	if got := s.RemainingSeconds(start.Add(300 * time.Second)); got != 0 {
		t.Fatalf("remaining=%d, want 0", got)
	}
}

func TestSplitElapsedNegativeClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := NewSession("conv", "client", "psychic", "agent", start, 60, 60)
	free, paid := s.SplitElapsed(start.Add(-10 * time.Second))
	if free != 0 || paid != 0 {
		t.Fatalf("got free=%d paid=%d, want 0/0", free, paid)
	}
}

func TestCeilMinutes(t *testing.T) {
	cases := []struct {
		seconds, want int
	}{
		{0, 0}, {-5, 0}, {1, 1}, {59, 1}, {60, 1}, {61, 2}, {90, 2}, {120, 2},
	}
	for _, c := range cases {
		if got := CeilMinutes(c.seconds); got != c.want {
			t.Errorf("CeilMinutes(%d)=%d, want %d", c.seconds, got, c.want)
		}
	}
}

func TestMessageIDsMonotonic(t *testing.T) {
	var prev string
	for i := 0; i < 100; i++ {
		m, err := NewMessage(RoleClient, "hello")
		if err != nil {
			t.Fatalf("NewMessage: %v", err)
		}
		if prev != "" && m.ID <= prev {
			t.Fatalf("id %q not greater than previous %q", m.ID, prev)
		}
		prev = m.ID
	}
}

func TestNewMessageRejectsBadInput(t *testing.T) {
	if _, err := NewMessage(RoleClient, ""); err == nil {
		t.Fatal("empty text accepted")
	}
	if _, err := NewMessage(Role("GHOST"), "boo"); err == nil {
		t.Fatal("unknown sender accepted")
	}
}

func TestToggleFavorite(t *testing.T) {
	u, err := NewClient("", "client", "c@example.com")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if !u.ToggleFavorite("psychic-1") {
		t.Fatal("first toggle should add")
	}
	if u.ToggleFavorite("psychic-1") {
		t.Fatal("second toggle should remove")
	}
	if len(u.FavoritePsychicIDs) != 0 {
		t.Fatalf("favorites not empty: %v", u.FavoritePsychicIDs)
	}
}

func TestAgentStatsRecord(t *testing.T) {
	s := NewAgentStats("agent-1")
	s.Record("2026-03-01", UsageSplit{FreeMinutesUsed: 2, PaidMinutesUsed: 3})
	s.Record("2026-03-01", UsageSplit{PaidMinutesUsed: 1})
	s.Record("2026-03-02", UsageSplit{FreeMinutesUsed: 1})

	if s.PaidMinutes != 4 || s.FreeMinutes != 3 {
		t.Fatalf("totals paid=%d free=%d, want 4/3", s.PaidMinutes, s.FreeMinutes)
	}
	if len(s.ActivityData) != 2 {
		t.Fatalf("buckets=%d, want 2", len(s.ActivityData))
	}
	if s.ActivityData[0].Paid != 4 || s.ActivityData[0].Free != 2 {
		t.Fatalf("day one bucket %+v", s.ActivityData[0])
	}
}

func TestHasUnreadForIsRoleScoped(t *testing.T) {
	c, _ := NewConversation("client", "psychic")
	c.UnreadForClient = true
	if !c.HasUnreadFor(RoleClient) {
		t.Fatal("client flag lost")
	}
	if c.HasUnreadFor(RoleAgent) {
		t.Fatal("agent sees client flag")
	}
}
