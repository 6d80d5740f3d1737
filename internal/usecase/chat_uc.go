package usecase

import (
	"context"
	"errors"
	"strings"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

const openingMessage = "Bonjour, je vous écoute attentivement."

type ChatUseCase interface {
	// GetOrCreateConversation returns the conversation for the pair, creating
	// it seeded with a single opening AGENT message. Concurrent calls for the
	// same pair resolve to the same conversation.
	GetOrCreateConversation(ctx context.Context, clientID, psychicID string) (*model.Conversation, error)
	// SendMessage publishes on the bus; it requires an active, funded session
	// for the conversation and returns ErrSessionClosed otherwise.
	SendMessage(ctx context.Context, conversationID string, sender model.Role, text string) (*model.Message, error)
	// MarkConversationRead clears the viewer's unread flag. Only an explicit
	// viewer selection clears it; delivery never does.
	MarkConversationRead(ctx context.Context, conversationID string, viewer model.Role) error
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListForClient(ctx context.Context, clientID string) ([]*model.Conversation, error)
	ListForAgent(ctx context.Context, agentID string) ([]*model.Conversation, error)
}

// SendGate is how the session clock vetoes sends on closed or exhausted
// sessions. Kept as a narrow interface to break the construction cycle
// between chat and session use cases.
type SendGate interface {
	CanSend(conversationID string) error
}

// PresencePolicy is invoked after each successful publish, once per viewer
// context of the conversation.
type PresencePolicy interface {
	OnConversationMessage(ctx context.Context, conv *model.Conversation, agentID string, msg *model.Message)
}

type chatUC struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
	psychics      repository.PsychicRepository
	agents        repository.AgentRepository
	bus           *bus.Bus
	presence      PresencePolicy
	gate          SendGate

	pairLocks *keyedMutex
	log       *zerolog.Logger
}

func NewChatUseCase(
	conversations repository.ConversationRepository,
	users repository.UserRepository,
	psychics repository.PsychicRepository,
	agents repository.AgentRepository,
	b *bus.Bus,
	presence PresencePolicy,
	logger *zerolog.Logger,
) *chatUC {
	l := logger.With().Str("component", "chat").Logger()
	return &chatUC{
		conversations: conversations,
		users:         users,
		psychics:      psychics,
		agents:        agents,
		bus:           b,
		presence:      presence,
		pairLocks:     newKeyedMutex(),
		log:           &l,
	}
}

// SetSendGate wires the session clock in after both use cases exist.
func (c *chatUC) SetSendGate(g SendGate) { c.gate = g }

func (c *chatUC) GetOrCreateConversation(ctx context.Context, clientID, psychicID string) (*model.Conversation, error) {
	lock := c.pairLocks.Lock(clientID + "/" + psychicID)
	defer lock.Unlock()

	if conv, err := c.conversations.FindByPair(ctx, repository.NoTX, clientID, psychicID); err == nil {
		return conv, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	conv, err := model.NewConversation(clientID, psychicID)
	if err != nil {
		return nil, err
	}
	if client, err := c.users.FindByID(ctx, repository.NoTX, clientID); err == nil {
		conv.ClientUsername = client.Username
	}
	if psychic, err := c.psychics.FindByID(ctx, repository.NoTX, psychicID); err == nil {
		conv.PsychicName = psychic.Name
	}

	opening, err := model.NewMessage(model.RoleAgent, openingMessage)
	if err != nil {
		return nil, err
	}
	conv.Append(opening)

	if err := c.conversations.Save(ctx, repository.NoTX, conv); err != nil {
		// Lost a race with another process; the existing conversation wins.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return c.conversations.FindByPair(ctx, repository.NoTX, clientID, psychicID)
		}
		return nil, err
	}
	c.log.Info().
		Str("conversation_id", conv.ID).
		Str("client_id", clientID).
		Str("psychic_id", psychicID).
		Msg("conversation created")
	return conv, nil
}

func (c *chatUC) SendMessage(ctx context.Context, conversationID string, sender model.Role, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}

	conv, err := c.conversations.FindByID(ctx, repository.NoTX, conversationID)
	if err != nil {
		return nil, err
	}
	if c.gate != nil {
		if err := c.gate.CanSend(conversationID); err != nil {
			return nil, err
		}
	}

	msg, err := model.NewMessage(sender, text)
	if err != nil {
		return nil, err
	}
	if err := c.bus.Publish(ctx, conversationID, msg); err != nil {
		return nil, err
	}
	metrics.IncMessagePublished(string(sender))

	if c.presence != nil {
		agentID := ""
		if agent, err := c.agents.FindByPsychic(ctx, repository.NoTX, conv.PsychicID); err == nil {
			agentID = agent.ID
		}
		c.presence.OnConversationMessage(ctx, conv, agentID, msg)
	}
	return msg, nil
}

func (c *chatUC) MarkConversationRead(ctx context.Context, conversationID string, viewer model.Role) error {
	return c.conversations.SetUnread(ctx, repository.NoTX, conversationID, viewer, false)
}

func (c *chatUC) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return c.conversations.FindByID(ctx, repository.NoTX, conversationID)
}

func (c *chatUC) ListForClient(ctx context.Context, clientID string) ([]*model.Conversation, error) {
	return c.conversations.ListForClient(ctx, repository.NoTX, clientID)
}

func (c *chatUC) ListForAgent(ctx context.Context, agentID string) ([]*model.Conversation, error) {
	profiles, err := c.psychics.ListByAgent(ctx, repository.NoTX, agentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return c.conversations.ListForPsychics(ctx, repository.NoTX, ids)
}
