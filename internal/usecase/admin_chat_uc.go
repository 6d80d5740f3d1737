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
var _ AdminChatUseCase = (*adminChatUC)(nil)

// adminInboxID is the shared viewer id of the back-office inbox; unread
// state there is per channel, not per admin account.
const adminInboxID = "admin"

type AdminChatUseCase interface {
	// SendAdminMessage posts to one agent's channel or, with
	// model.RecipientBroadcast, to the channel every agent sees. The
	// conversation is created lazily on first send.
	SendAdminMessage(ctx context.Context, recipientID, text string) (*model.Message, error)
	// SendAgentReply posts an agent's answer on their direct channel. Agents
	// cannot post on the broadcast channel; that returns ErrPermissionDenied.
	SendAgentReply(ctx context.Context, agentID, conversationID, text string) (*model.Message, error)
	ListForAgent(ctx context.Context, agentID string) ([]*model.AdminConversation, error)
	ListAll(ctx context.Context) ([]*model.AdminConversation, error)
	MarkRead(ctx context.Context, conversationID string, viewer model.Role) error
}

type adminChatUC struct {
	adminConversations repository.AdminConversationRepository
	agents             repository.AgentRepository
	bus                *bus.Bus
	presence           PresenceUseCase

	recipientLocks *keyedMutex
	log            *zerolog.Logger
}

func NewAdminChatUseCase(
	adminConversations repository.AdminConversationRepository,
	agents repository.AgentRepository,
	b *bus.Bus,
	presence PresenceUseCase,
	logger *zerolog.Logger,
) *adminChatUC {
	l := logger.With().Str("component", "admin_chat").Logger()
	return &adminChatUC{
		adminConversations: adminConversations,
		agents:             agents,
		bus:                b,
		presence:           presence,
		recipientLocks:     newKeyedMutex(),
		log:                &l,
	}
}

func (u *adminChatUC) SendAdminMessage(ctx context.Context, recipientID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if recipientID == "" || text == "" {
		return nil, domain.ErrInvalidArgument
	}

	conv, err := u.getOrCreate(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	msg, err := model.NewMessage(model.RoleAdmin, text)
	if err != nil {
		return nil, err
	}
	if err := u.bus.Publish(ctx, conv.ID, msg); err != nil {
		return nil, err
	}
	metrics.IncMessagePublished(string(model.RoleAdmin))

	if u.presence != nil {
		u.presence.OnAdminMessage(ctx, conv, u.recipientsOf(ctx, conv), msg)
	}
	return msg, nil
}

func (u *adminChatUC) SendAgentReply(ctx context.Context, agentID, conversationID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if agentID == "" || text == "" {
		return nil, domain.ErrInvalidArgument
	}

	conv, err := u.adminConversations.FindByID(ctx, repository.NoTX, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsBroadcast() || conv.RecipientID != agentID {
		return nil, domain.ErrPermissionDenied
	}

	msg, err := model.NewMessage(model.RoleAgent, text)
	if err != nil {
		return nil, err
	}
	if err := u.bus.Publish(ctx, conv.ID, msg); err != nil {
		return nil, err
	}
	metrics.IncMessagePublished(string(model.RoleAgent))

	if u.presence != nil {
		u.presence.OnAdminMessage(ctx, conv, []Recipient{{ID: adminInboxID, Role: model.RoleAdmin}}, msg)
	}
	return msg, nil
}

func (u *adminChatUC) getOrCreate(ctx context.Context, recipientID string) (*model.AdminConversation, error) {
	lock := u.recipientLocks.Lock(recipientID)
	defer lock.Unlock()

	conv, err := u.adminConversations.FindByRecipient(ctx, repository.NoTX, recipientID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	name := "Tous les agents"
	if recipientID != model.RecipientBroadcast {
		agent, err := u.agents.FindByID(ctx, repository.NoTX, recipientID)
		if err != nil {
			return nil, err
		}
		name = agent.Username
	}
	conv, err = model.NewAdminConversation(recipientID, name)
	if err != nil {
		return nil, err
	}
	if err := u.adminConversations.Save(ctx, repository.NoTX, conv); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return u.adminConversations.FindByRecipient(ctx, repository.NoTX, recipientID)
		}
		return nil, err
	}
	u.log.Info().Str("conversation_id", conv.ID).Str("recipient", recipientID).Msg("admin conversation created")
	return conv, nil
}

// recipientsOf resolves who sees a message on this channel: the named agent,
// or every agent when it is the broadcast channel.
func (u *adminChatUC) recipientsOf(ctx context.Context, conv *model.AdminConversation) []Recipient {
	if !conv.IsBroadcast() {
		return []Recipient{{ID: conv.RecipientID, Role: model.RoleAgent}}
	}
	agents, err := u.agents.List(ctx, repository.NoTX)
	if err != nil {
		u.log.Error().Err(err).Msg("agent list for broadcast failed")
		return nil
	}
	out := make([]Recipient, 0, len(agents))
	for _, a := range agents {
		out = append(out, Recipient{ID: a.ID, Role: model.RoleAgent})
	}
	return out
}

func (u *adminChatUC) ListForAgent(ctx context.Context, agentID string) ([]*model.AdminConversation, error) {
	return u.adminConversations.ListForAgent(ctx, repository.NoTX, agentID)
}

func (u *adminChatUC) ListAll(ctx context.Context) ([]*model.AdminConversation, error) {
	return u.adminConversations.List(ctx, repository.NoTX)
}

func (u *adminChatUC) MarkRead(ctx context.Context, conversationID string, viewer model.Role) error {
	return u.adminConversations.SetUnread(ctx, repository.NoTX, conversationID, viewer, false)
}
