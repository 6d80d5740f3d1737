package model

import (
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
)

// PsychicProfile is the public persona a client chats with. Every profile is
// owned by exactly one agent; ownership is transferable, never shared.
type PsychicProfile struct {
	ID           string
	AgentID      string
	Name         string
	Specialty    string
	Description  string
	ImageURL     string
	Rating       float64
	ReviewsCount int
	IsOnline     bool
}

func NewPsychicProfile(id, agentID, name, specialty string) (*PsychicProfile, error) {
	if agentID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &PsychicProfile{
		ID:        id,
		AgentID:   agentID,
		Name:      name,
		Specialty: specialty,
	}, nil
}

// Agent is the human operator behind one or more psychic profiles.
type Agent struct {
	ID                string
	Username          string
	CreationDate      time.Time
	PsychicProfileIDs []string
	IsOnline          bool
}

func NewAgent(id, username string) (*Agent, error) {
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Agent{
		ID:           id,
		Username:     username,
		CreationDate: time.Now(),
	}, nil
}

// OwnsPsychic reports whether the given profile belongs to this agent.
func (a *Agent) OwnsPsychic(psychicID string) bool {
	for _, id := range a.PsychicProfileIDs {
		if id == psychicID {
			return true
		}
	}
	return false
}
