package usecase

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/adapter"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/metrics"
	"oraclia-chat-platform/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PresencePolicy = (*presenceUC)(nil)

// Recipient is one viewer context of an admin conversation, resolved by the
// caller before delivery.
type Recipient struct {
	ID   string
	Role model.Role
}

type viewport struct {
	conversationID string
	foreground     bool
}

// PresenceUseCase decides, per viewer, whether an incoming message is read
// immediately or becomes an unread badge plus one notification. A viewer
// with the conversation open in the foreground reads it on the spot; anyone
// else gets the unread flag and at most one alert per message.
type PresenceUseCase interface {
	PresencePolicy
	SetViewport(viewerID, conversationID string, foreground bool)
	ClearViewport(viewerID string)
	OnAdminMessage(ctx context.Context, conv *model.AdminConversation, recipients []Recipient, msg *model.Message)
}

type presenceUC struct {
	conversations      repository.ConversationRepository
	adminConversations repository.AdminConversationRepository
	notifier           adapter.Notifier
	pool               *worker.Pool
	dedupe             *bus.Dedupe

	mu        sync.RWMutex
	viewports map[string]viewport

	log *zerolog.Logger
}

func NewPresenceUseCase(
	conversations repository.ConversationRepository,
	adminConversations repository.AdminConversationRepository,
	notifier adapter.Notifier,
	pool *worker.Pool,
	dedupe *bus.Dedupe,
	logger *zerolog.Logger,
) *presenceUC {
	l := logger.With().Str("component", "presence").Logger()
	return &presenceUC{
		conversations:      conversations,
		adminConversations: adminConversations,
		notifier:           notifier,
		pool:               pool,
		dedupe:             dedupe,
		viewports:          make(map[string]viewport),
		log:                &l,
	}
}

func (p *presenceUC) SetViewport(viewerID, conversationID string, foreground bool) {
	p.mu.Lock()
	p.viewports[viewerID] = viewport{conversationID: conversationID, foreground: foreground}
	p.mu.Unlock()
}

func (p *presenceUC) ClearViewport(viewerID string) {
	p.mu.Lock()
	delete(p.viewports, viewerID)
	p.mu.Unlock()
}

// reading reports whether the viewer has this conversation open in the
// foreground right now.
func (p *presenceUC) reading(viewerID, conversationID string) bool {
	p.mu.RLock()
	vp, ok := p.viewports[viewerID]
	p.mu.RUnlock()
	return ok && vp.foreground && vp.conversationID == conversationID
}

func (p *presenceUC) OnConversationMessage(ctx context.Context, conv *model.Conversation, agentID string, msg *model.Message) {
	if msg.Sender != model.RoleClient {
		p.deliver(ctx, conv.ID, false, conv.ClientID, model.RoleClient, msg)
	}
	if msg.Sender != model.RoleAgent && agentID != "" {
		p.deliver(ctx, conv.ID, false, agentID, model.RoleAgent, msg)
	}
}

func (p *presenceUC) OnAdminMessage(ctx context.Context, conv *model.AdminConversation, recipients []Recipient, msg *model.Message) {
	for _, r := range recipients {
		if r.Role == msg.Sender {
			continue
		}
		p.deliver(ctx, conv.ID, true, r.ID, r.Role, msg)
	}
}

func (p *presenceUC) deliver(ctx context.Context, conversationID string, admin bool, viewerID string, viewerRole model.Role, msg *model.Message) {
	setUnread := p.conversations.SetUnread
	if admin {
		setUnread = p.adminConversations.SetUnread
	}

	if p.reading(viewerID, conversationID) {
		// Read on arrival, the badge never shows.
		if err := setUnread(ctx, repository.NoTX, conversationID, viewerRole, false); err != nil {
			p.log.Error().Err(err).Str("conversation_id", conversationID).Msg("clear unread failed")
		}
		return
	}

	if err := setUnread(ctx, repository.NoTX, conversationID, viewerRole, true); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conversationID).Msg("set unread failed")
	}

	// One alert per (viewer, message), no matter how delivery is retried.
	if p.dedupe.CheckAndMark(viewerID + "/" + conversationID + "/" + msg.ID) {
		return
	}
	n := model.Notification{
		RecipientID:    viewerID,
		ConversationID: conversationID,
		MessageID:      msg.ID,
		Kind:           model.NotificationInfo,
		Text:           msg.Text,
		Sound:          true,
	}
	task := func(ctx context.Context) error {
		if err := p.notifier.Notify(ctx, n); err != nil {
			return err
		}
		metrics.IncNotificationSent()
		return nil
	}
	if err := p.pool.Submit(task); err != nil {
		p.log.Warn().Err(err).Str("recipient", viewerID).Msg("notification dropped")
	}
}
