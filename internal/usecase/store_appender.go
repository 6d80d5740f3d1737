package usecase

import (
	"context"
	"errors"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

// StoreAppender adapts the two conversation repositories to the bus Appender
// contract. Client⇄psychic chats and the admin channel share one bus keyed by
// conversation id, so the append has to try both stores.
type StoreAppender struct {
	conversations repository.ConversationRepository
	admin         repository.AdminConversationRepository
}

func NewStoreAppender(conversations repository.ConversationRepository, admin repository.AdminConversationRepository) *StoreAppender {
	return &StoreAppender{conversations: conversations, admin: admin}
}

func (a *StoreAppender) Append(ctx context.Context, conversationID string, m *model.Message) error {
	err := a.conversations.AppendMessage(ctx, repository.NoTX, conversationID, m)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return a.admin.AppendMessage(ctx, repository.NoTX, conversationID, m)
}
