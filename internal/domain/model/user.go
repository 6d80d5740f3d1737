package model

import (
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAgent  Role = "AGENT"
	RoleAdmin  Role = "ADMIN"
)

// User is a domain entity for any account on the platform. Clients carry the
// two minute pools; the free pool is always drained before the paid pool
// during session metering.
type User struct {
	ID           string
	Username     string
	Email        string
	Role         Role
	SignupDate   time.Time
	LastActiveAt time.Time

	// Client-only fields. Both pools are whole minutes and never negative.
	FreeMinutes        int
	PaidMinutes        int
	FavoritePsychicIDs map[string]struct{}
}

func NewClient(id, username, email string) (*User, error) {
	if username == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &User{
		ID:                 id,
		Username:           username,
		Email:              email,
		Role:               RoleClient,
		SignupDate:         now,
		LastActiveAt:       now,
		FavoritePsychicIDs: make(map[string]struct{}),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// TotalMinutes is the combined pool used by the session start check.
func (u *User) TotalMinutes() int { return u.FreeMinutes + u.PaidMinutes }

// ToggleFavorite flips membership of psychicID in the favorites set and
// reports whether it is a favorite afterwards.
func (u *User) ToggleFavorite(psychicID string) bool {
	if u.FavoritePsychicIDs == nil {
		u.FavoritePsychicIDs = make(map[string]struct{})
	}
	if _, ok := u.FavoritePsychicIDs[psychicID]; ok {
		delete(u.FavoritePsychicIDs, psychicID)
		return false
	}
	u.FavoritePsychicIDs[psychicID] = struct{}{}
	return true
}
