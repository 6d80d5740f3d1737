package adapter

import (
	"context"

	"oraclia-chat-platform/internal/domain"
)

// SpeechRecognizer is the narrow capability behind voice input. When the
// capability is unavailable the feature is simply disabled; its absence must
// never reach session or balance logic.
type SpeechRecognizer interface {
	Supported() bool
	StartListening(ctx context.Context, onTranscript func(text string)) error
	StopListening() error
}

// NoopRecognizer is the stub used when no speech backend is wired. Start
// reports ErrUnsupportedCapability so callers can degrade gracefully.
type NoopRecognizer struct{}

func (NoopRecognizer) Supported() bool { return false }

func (NoopRecognizer) StartListening(ctx context.Context, onTranscript func(string)) error {
	return domain.ErrUnsupportedCapability
}

func (NoopRecognizer) StopListening() error { return nil }
