package notify

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// LogNotifier writes alerts to the structured log. It stands in until a
// push channel is configured; front ends pick alerts up over the event
// streams either way.
type LogNotifier struct {
	log *zerolog.Logger
}

var _ adapter.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "notifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) Notify(ctx context.Context, notif model.Notification) error {
	n.log.Info().
		Str("recipient_id", notif.RecipientID).
		Str("conversation_id", notif.ConversationID).
		Str("message_id", notif.MessageID).
		Str("kind", string(notif.Kind)).
		Bool("sound", notif.Sound).
		Msg("notification")
	return nil
}
