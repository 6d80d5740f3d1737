package bus

import (
	"context"
	"sync"
	"testing"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAppender struct {
	mu    sync.Mutex
	logs  map[string][]model.Message
	known map[string]bool
}

func newMemAppender(conversationIDs ...string) *memAppender {
	a := &memAppender{logs: map[string][]model.Message{}, known: map[string]bool{}}
	for _, id := range conversationIDs {
		a.known[id] = true
	}
	return a
}

func (a *memAppender) Append(ctx context.Context, conversationID string, m *model.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.known[conversationID] {
		return domain.ErrNotFound
	}
	a.logs[conversationID] = append(a.logs[conversationID], *m)
	return nil
}

func newTestBus(appender Appender) *Bus {
	logger := zerolog.Nop()
	return New(appender, &logger)
}

func mustMessage(t *testing.T, sender model.Role, text string) *model.Message {
	t.Helper()
	m, err := model.NewMessage(sender, text)
	require.NoError(t, err)
	return m
}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1"))

	var order []string
	b.Subscribe("conv-1", func(_ string, m *model.Message) { order = append(order, "first") })
	b.Subscribe("conv-1", func(_ string, m *model.Message) { order = append(order, "second") })

	require.NoError(t, b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleClient, "hi")))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishPreservesPublishOrder(t *testing.T) {
	store := newMemAppender("conv-1")
	b := newTestBus(store)

	var got []string
	b.Subscribe("conv-1", func(_ string, m *model.Message) { got = append(got, m.Text) })

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleClient, text)))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.Len(t, store.logs["conv-1"], 3)
}

func TestPublishUnknownConversation(t *testing.T) {
	b := newTestBus(newMemAppender())

	delivered := false
	b.Subscribe("ghost", func(string, *model.Message) { delivered = true })

	err := b.Publish(context.Background(), "ghost", mustMessage(t, model.RoleClient, "hi"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, delivered, "listeners must not fire when the append failed")
}

func TestSubscribeUnknownConversationIsAllowed(t *testing.T) {
	b := newTestBus(newMemAppender())
	h := b.Subscribe("not-yet-created", func(string, *model.Message) {})
	assert.Equal(t, 1, b.SubscriberCount("not-yet-created"))
	b.Unsubscribe(h)
	assert.Equal(t, 0, b.SubscriberCount("not-yet-created"))
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1"))

	calls := 0
	h := b.Subscribe("conv-1", func(string, *model.Message) { calls++ })
	b.Unsubscribe(h)
	b.Unsubscribe(h)
	b.Unsubscribe(Handle{})

	require.NoError(t, b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleClient, "hi")))
	assert.Zero(t, calls)
}

func TestUnsubscribeOnlyRemovesOwnListener(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1"))

	var got []string
	h1 := b.Subscribe("conv-1", func(_ string, m *model.Message) { got = append(got, "a") })
	b.Subscribe("conv-1", func(_ string, m *model.Message) { got = append(got, "b") })
	b.Unsubscribe(h1)

	require.NoError(t, b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleClient, "hi")))
	assert.Equal(t, []string{"b"}, got)
}

func TestPanickingListenerDoesNotBreakDelivery(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1"))

	delivered := false
	b.Subscribe("conv-1", func(string, *model.Message) { panic("boom") })
	b.Subscribe("conv-1", func(string, *model.Message) { delivered = true })

	require.NoError(t, b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleClient, "hi")))
	assert.True(t, delivered)
}

func TestNoCrossConversationDelivery(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1", "conv-2"))

	var got []string
	b.Subscribe("conv-1", func(_ string, m *model.Message) { got = append(got, "conv-1") })

	require.NoError(t, b.Publish(context.Background(), "conv-2", mustMessage(t, model.RoleClient, "hi")))
	assert.Empty(t, got)
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := newTestBus(newMemAppender("conv-1"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h := b.Subscribe("conv-1", func(string, *model.Message) {})
			b.Unsubscribe(h)
		}()
		go func() {
			defer wg.Done()
			_ = b.Publish(context.Background(), "conv-1", mustMessage(t, model.RoleAgent, "tick"))
		}()
	}
	wg.Wait()
}
