package adapter

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
)

// Notifier delivers sound/toast alerts decided by the presence policy. The
// transport (browser push, websocket frame, in-app queue) is outside the
// core; implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// NoopNotifier is used when no delivery channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, n model.Notification) error { return nil }
