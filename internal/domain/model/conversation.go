package model

import (
	"crypto/rand"
	"sync"
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RecipientBroadcast is the sentinel recipient of the admin conversation that
// every agent sees.
const RecipientBroadcast = "BROADCAST"

// Message is immutable after creation. IDs are ULIDs drawn from a monotonic
// source, so within a conversation they are unique and strictly increasing in
// creation order.
type Message struct {
	ID        string
	Sender    Role
	Text      string
	Timestamp time.Time
}

var (
	msgEntropyMu sync.Mutex
	msgEntropy   = ulid.Monotonic(rand.Reader, 0)
)

func NewMessage(sender Role, text string) (*Message, error) {
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch sender {
	case RoleClient, RoleAgent, RoleAdmin:
	default:
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	msgEntropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), msgEntropy)
	msgEntropyMu.Unlock()
	return &Message{
		ID:        id.String(),
		Sender:    sender,
		Text:      text,
		Timestamp: now,
	}, nil
}

// Conversation is the message log between one client and one psychic profile.
// Messages are append-only and kept in delivery order. The unread flags are
// per viewing role: a message never marks unread for its own sender's role.
type Conversation struct {
	ID              string
	ClientID        string
	ClientUsername  string
	PsychicID       string
	PsychicName     string
	Messages        []Message
	UnreadForClient bool
	UnreadForAgent  bool
	CreatedAt       time.Time
}

func NewConversation(clientID, psychicID string) (*Conversation, error) {
	if clientID == "" || psychicID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Conversation{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		PsychicID: psychicID,
		Messages:  make([]Message, 0, 8),
		CreatedAt: time.Now(),
	}, nil
}

func (c *Conversation) Append(m *Message) {
	c.Messages = append(c.Messages, *m)
}

// LastMessage returns nil on an empty log.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// HasUnreadFor resolves the role-scoped unread flag. Admins reuse the agent
// flag on the admin channel; regular conversations have no admin viewer.
func (c *Conversation) HasUnreadFor(viewer Role) bool {
	switch viewer {
	case RoleClient:
		return c.UnreadForClient
	case RoleAgent:
		return c.UnreadForAgent
	default:
		return false
	}
}

// AdminConversation is the admin⇄agent channel. RecipientID is either a
// specific agent id or RecipientBroadcast, in which case a single message
// sequence is shared by all agents.
type AdminConversation struct {
	ID             string
	RecipientID    string
	RecipientName  string
	Messages       []Message
	UnreadForAgent bool
	UnreadForAdmin bool
	CreatedAt      time.Time
}

func NewAdminConversation(recipientID, recipientName string) (*AdminConversation, error) {
	if recipientID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &AdminConversation{
		ID:            uuid.NewString(),
		RecipientID:   recipientID,
		RecipientName: recipientName,
		Messages:      make([]Message, 0, 8),
		CreatedAt:     time.Now(),
	}, nil
}

func (c *AdminConversation) Append(m *Message) {
	c.Messages = append(c.Messages, *m)
}

func (c *AdminConversation) IsBroadcast() bool {
	return c.RecipientID == RecipientBroadcast
}
