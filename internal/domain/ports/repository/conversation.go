package repository

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// -----------------------------
// Conversations
// -----------------------------

type ConversationRepository interface {
	Save(ctx context.Context, qx any, c *model.Conversation) error
	FindByID(ctx context.Context, qx any, id string) (*model.Conversation, error)
	// FindByPair returns the conversation for a (client, psychic) pair or
	// domain.ErrNotFound. At most one exists per pair.
	FindByPair(ctx context.Context, qx any, clientID, psychicID string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error
	SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error
	ListForClient(ctx context.Context, qx any, clientID string) ([]*model.Conversation, error)
	ListForPsychics(ctx context.Context, qx any, psychicIDs []string) ([]*model.Conversation, error)
}

// -----------------------------
// Admin⇄agent conversations
// -----------------------------

type AdminConversationRepository interface {
	Save(ctx context.Context, qx any, c *model.AdminConversation) error
	FindByID(ctx context.Context, qx any, id string) (*model.AdminConversation, error)
	FindByRecipient(ctx context.Context, qx any, recipientID string) (*model.AdminConversation, error)
	AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error
	SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error
	List(ctx context.Context, qx any) ([]*model.AdminConversation, error)
	// ListForAgent returns the agent's direct conversation plus the broadcast
	// one, when they exist.
	ListForAgent(ctx context.Context, qx any, agentID string) ([]*model.AdminConversation, error)
}
