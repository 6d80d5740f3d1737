package model

import (
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionPending SessionState = "pending"
	SessionActive  SessionState = "active"
	SessionClosed  SessionState = "closed"
)

// UsageSplit is the billing result of one session: whole minutes debited from
// each pool, each duration rounded up independently.
type UsageSplit struct {
	FreeMinutesUsed int
	PaidMinutesUsed int
}

// Session is the ephemeral metering context of one active chat. It is never
// persisted; the balance snapshot taken at reservation time bounds how long
// the session may run.
type Session struct {
	ID                 string
	ConversationID     string
	ClientID           string
	PsychicID          string
	AgentID            string
	StartInstant       time.Time
	InitialFreeSeconds int
	InitialPaidSeconds int
	State              SessionState
}

func NewSession(conversationID, clientID, psychicID, agentID string, start time.Time, freeSeconds, paidSeconds int) (*Session, error) {
	if conversationID == "" || clientID == "" || psychicID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Session{
		ID:                 uuid.NewString(),
		ConversationID:     conversationID,
		ClientID:           clientID,
		PsychicID:          psychicID,
		AgentID:            agentID,
		StartInstant:       start,
		InitialFreeSeconds: freeSeconds,
		InitialPaidSeconds: paidSeconds,
		State:              SessionActive,
	}, nil
}

// InitialTotalSeconds is the hard ceiling on elapsed time.
func (s *Session) InitialTotalSeconds() int {
	return s.InitialFreeSeconds + s.InitialPaidSeconds
}

// RemainingSeconds clamps at zero once the combined pool is exhausted.
func (s *Session) RemainingSeconds(now time.Time) int {
	elapsed := int(now.Sub(s.StartInstant) / time.Second)
	remaining := s.InitialTotalSeconds() - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SplitElapsed divides elapsed session time between the pools: free seconds
// are consumed strictly first, the paid pool takes the remainder. Elapsed is
// clamped to the initial total so usage can never exceed the snapshot.
func (s *Session) SplitElapsed(now time.Time) (freeSeconds, paidSeconds int) {
	elapsed := int(now.Sub(s.StartInstant) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if total := s.InitialTotalSeconds(); elapsed > total {
		elapsed = total
	}
	freeSeconds = elapsed
	if freeSeconds > s.InitialFreeSeconds {
		freeSeconds = s.InitialFreeSeconds
	}
	paidSeconds = elapsed - freeSeconds
	return freeSeconds, paidSeconds
}

// CeilMinutes rounds a second count up to whole minutes. Billing applies it
// to each pool independently, which can overcharge by one minute on a
// fractional split; the behavior is kept as-is pending product sign-off.
func CeilMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}
