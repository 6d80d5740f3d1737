package sched

import (
	"context"
	"time"

	"oraclia-chat-platform/internal/usecase"

	"github.com/rs/zerolog"
)

// IdleReaper periodically closes sessions whose clients stopped sending,
// so abandoned tabs don't meter a wallet down to zero.
type IdleReaper struct {
	interval time.Duration
	idleFor  time.Duration
	sessions usecase.SessionUseCase
	log      *zerolog.Logger
}

func NewIdleReaper(interval, idleFor time.Duration, sessions usecase.SessionUseCase, logger *zerolog.Logger) *IdleReaper {
	compLog := logger.With().Str("component", "IdleReaper").Logger()
	return &IdleReaper{
		interval: interval,
		idleFor:  idleFor,
		sessions: sessions,
		log:      &compLog,
	}
}

func (w *IdleReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("idle_for", w.idleFor).Msg("Starting idle reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping idle reaper")
			return ctx.Err()
		case <-ticker.C:
			n := w.sessions.CloseIdle(ctx, w.idleFor)
			if n > 0 {
				w.log.Info().Int("count", n).Msg("idle sessions closed")
			}
		}
	}
}
