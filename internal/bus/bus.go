// Package bus is the per-conversation publish/subscribe fan-out shared by
// client⇄psychic chats and the admin⇄agent channel.
package bus

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Listener receives every message published on a subscribed conversation,
// synchronously and in publish order.
type Listener func(conversationID string, msg *model.Message)

// Handle identifies one subscription. The zero Handle is inert.
type Handle struct {
	conversationID string
	id             uint64
}

// Appender is the conversation-store hook invoked before fan-out. It must
// return domain.ErrNotFound for unknown conversations.
type Appender interface {
	Append(ctx context.Context, conversationID string, m *model.Message) error
}

type subscription struct {
	id uint64
	fn Listener
}

// Bus delivers each published message to every current subscriber of its
// conversation exactly once. Ordering holds per conversation only. Subscribing
// to a conversation that does not exist yet is a valid no-op registration:
// entity creation and listener registration are deliberately independent.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	store  Appender
	log    *zerolog.Logger
}

func New(store Appender, logger *zerolog.Logger) *Bus {
	l := logger.With().Str("component", "bus").Logger()
	return &Bus{
		subs:  make(map[string][]subscription),
		store: store,
		log:   &l,
	}
}

// Subscribe registers fn for the conversation and returns the handle used to
// unsubscribe. Registration order is delivery order.
func (b *Bus) Subscribe(conversationID string, fn Listener) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	h := Handle{conversationID: conversationID, id: b.nextID}
	b.subs[conversationID] = append(b.subs[conversationID], subscription{id: h.id, fn: fn})
	return h
}

// Unsubscribe removes the subscription. Repeated calls and zero handles are
// safe no-ops.
func (b *Bus) Unsubscribe(h Handle) {
	if h.id == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[h.conversationID]
	for i := range subs {
		if subs[i].id == h.id {
			b.subs[h.conversationID] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[h.conversationID]) == 0 {
		delete(b.subs, h.conversationID)
	}
}

// Publish appends the message to the conversation store, then invokes every
// registered listener synchronously in registration order. A panicking
// listener is logged and skipped; it never breaks delivery to the others.
func (b *Bus) Publish(ctx context.Context, conversationID string, msg *model.Message) error {
	if err := b.store.Append(ctx, conversationID, msg); err != nil {
		return err
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[conversationID]))
	copy(subs, b.subs[conversationID])
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(s, conversationID, msg)
	}
	return nil
}

func (b *Bus) invoke(s subscription, conversationID string, msg *model.Message) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncBusListenerPanic()
			b.log.Error().
				Interface("panic", r).
				Str("conversation_id", conversationID).
				Str("message_id", msg.ID).
				Msg("listener panicked")
		}
	}()
	s.fn(conversationID, msg)
}

// SubscriberCount is a test/observability helper.
func (b *Bus) SubscriberCount(conversationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[conversationID])
}
