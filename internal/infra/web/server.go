package web

import (
	"context"
	"net/http"
	"time"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/adapter"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/redis"
	"oraclia-chat-platform/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SendLimiter is the per-sender throttle on message posting, satisfied by
// the redis fixed-window limiter.
type SendLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ SendLimiter = (*redis.RateLimiter)(nil)

// messageThrottle binds a SendLimiter to its policy. Throttle errors fail
// open: a broken limiter backend must not take chat down.
type messageThrottle struct {
	limiter SendLimiter
	limit   int
	window  time.Duration
}

func (t *messageThrottle) allow(ctx context.Context, senderID string) (bool, error) {
	return t.limiter.Allow(ctx, redis.MessageKey(senderID), t.limit, t.window)
}

// Deps is everything the HTTP layer serves. Limiter is optional.
type Deps struct {
	Chat      usecase.ChatUseCase
	Sessions  usecase.SessionUseCase
	AdminChat usecase.AdminChatUseCase
	Purchases usecase.PurchaseUseCase
	Profiles  usecase.ProfileUseCase
	Stats     usecase.StatsUseCase
	Presence  usecase.PresenceUseCase
	Ledger    usecase.LedgerUseCase
	Bus       *bus.Bus
	Users     repository.UserRepository
	Agents    repository.AgentRepository
	Limiter   SendLimiter
	Speech    adapter.SpeechRecognizer
}

type Server struct {
	deps Deps
	auth *AuthManager
	log  *zerolog.Logger
}

func NewServer(deps Deps, auth *AuthManager, logger *zerolog.Logger) *Server {
	if deps.Speech == nil {
		deps.Speech = adapter.NoopRecognizer{}
	}
	l := logger.With().Str("component", "web").Logger()
	return &Server{deps: deps, auth: auth, log: &l}
}

// Routes builds the full router. Everything under /api/v1 except login is
// behind token auth; the admin subtree additionally requires the admin role.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	var throttle *messageThrottle
	if s.deps.Limiter != nil {
		throttle = &messageThrottle{limiter: s.deps.Limiter, limit: 20, window: 10 * time.Second}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", loginHandler(s.deps.Users, s.deps.Agents, s.auth))
		r.Post("/auth/logout", logoutHandler(s.auth))

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Get("/capabilities", capabilitiesHandler(s.deps.Speech))

			r.Get("/psychics", listPsychicsHandler(s.deps.Profiles))
			r.Get("/psychics/{psychicID}", getPsychicHandler(s.deps.Profiles))
			r.Get("/psychics/{psychicID}/reviews", listReviewsHandler(s.deps.Profiles))
			r.With(RequireRole(model.RoleClient)).
				Post("/psychics/{psychicID}/reviews", addReviewHandler(s.deps.Profiles))

			r.Get("/packs", listPacksHandler(s.deps.Purchases))
			r.Post("/clients/{clientID}/purchases", purchaseHandler(s.deps.Purchases))
			r.Get("/clients/{clientID}/payments", paymentHistoryHandler(s.deps.Purchases))
			r.Get("/clients/{clientID}/balance", balanceHandler(s.deps.Ledger))
			r.Post("/clients/{clientID}/favorites/{psychicID}", toggleFavoriteHandler(s.deps.Profiles))
			r.Get("/clients/{clientID}/favorites", listFavoritesHandler(s.deps.Profiles))
			r.Get("/clients/{clientID}/conversations", clientConversationsHandler(s.deps.Chat))

			r.With(RequireRole(model.RoleClient)).
				Post("/sessions", startSessionHandler(s.deps.Sessions))
			r.Delete("/sessions/{sessionID}", closeSessionHandler(s.deps.Sessions))
			r.Get("/sessions/{sessionID}/remaining", sessionRemainingHandler(s.deps.Sessions))
			r.Get("/sessions/{sessionID}/events", sessionEventsHandler(s.deps.Sessions))

			r.Get("/conversations/{conversationID}", getConversationHandler(s.deps.Chat))
			r.Post("/conversations/{conversationID}/messages", sendMessageHandler(s.deps.Chat, throttle))
			r.Post("/conversations/{conversationID}/read", markReadHandler(s.deps.Chat))
			r.Get("/conversations/{conversationID}/events", conversationEventsHandler(s.deps.Bus))

			r.Put("/presence", setPresenceHandler(s.deps.Presence))
			r.Delete("/presence", clearPresenceHandler(s.deps.Presence))

			r.Get("/agents/{agentID}/conversations", agentConversationsHandler(s.deps.Chat))
			r.Get("/agents/{agentID}/admin-conversations", agentAdminConversationsHandler(s.deps.AdminChat))
			r.With(RequireRole(model.RoleAgent)).
				Post("/admin-conversations/{conversationID}/reply", agentReplyHandler(s.deps.AdminChat))
			r.Post("/admin-conversations/{conversationID}/read", adminMarkReadHandler(s.deps.AdminChat))

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(model.RoleAdmin))
				r.Get("/dashboard", dashboardHandler(s.deps.Stats))
				r.Get("/agents/activity", agentActivityHandler(s.deps.Stats))
				r.Post("/messages", adminSendHandler(s.deps.AdminChat))
				r.Get("/conversations", adminConversationsHandler(s.deps.AdminChat))
				r.Post("/clients/{clientID}/grant", grantMinutesHandler(s.deps.Ledger))
			})
		})
	})

	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
