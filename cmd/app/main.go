package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oraclia-chat-platform/internal/bus"
	"oraclia-chat-platform/internal/clock"
	"oraclia-chat-platform/internal/config"
	"oraclia-chat-platform/internal/domain/ports/repository"
	pg "oraclia-chat-platform/internal/infra/db/postgres"
	"oraclia-chat-platform/internal/infra/logging"
	"oraclia-chat-platform/internal/infra/memory"
	"oraclia-chat-platform/internal/infra/metrics"
	"oraclia-chat-platform/internal/infra/notify"
	red "oraclia-chat-platform/internal/infra/redis"
	"oraclia-chat-platform/internal/infra/sched"
	"oraclia-chat-platform/internal/infra/security"
	"oraclia-chat-platform/internal/infra/web"
	"oraclia-chat-platform/internal/infra/worker"
	"oraclia-chat-platform/internal/usecase"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode: in-memory backends, relaxed auth")
	}

	// ---- Storage backends ----
	var (
		users    repository.UserRepository
		convs    repository.ConversationRepository
		admins   repository.AdminConversationRepository
		agents   repository.AgentRepository
		stats    repository.AgentStatsRepository
		psychics repository.PsychicRepository
		payments repository.PaymentRepository
		packs    repository.MinutePackRepository
		reviews  repository.ReviewRepository

		txm     repository.TransactionManager
		locker  usecase.Locker
		mirror  usecase.SessionMirror
		limiter web.SendLimiter
	)

	if cfg.Runtime.Dev {
		users = memory.NewUserRepo()
		convs = memory.NewConversationRepo()
		admins = memory.NewAdminConversationRepo()
		agents = memory.NewAgentRepo()
		stats = memory.NewAgentStatsRepo()
		psychics = memory.NewPsychicRepo()
		payments = memory.NewPaymentRepo()
		packs = memory.NewMinutePackRepo(nil)
		reviews = memory.NewReviewRepo()
	} else {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)

		users = pg.NewUserRepo(pool)
		convs = pg.NewConversationRepo(pool)
		admins = pg.NewAdminConversationRepo(pool)
		agents = pg.NewAgentRepo(pool)
		stats = pg.NewAgentStatsRepo(pool)
		psychics = pg.NewPsychicRepo(pool)
		payments = pg.NewPaymentRepo(pool)
		packs = pg.NewMinutePackRepo(pool)
		reviews = pg.NewReviewRepo(pool)
		txm = pg.NewTxManager(pool)

		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()

		var enc *security.EncryptionService
		if cfg.Security.EncryptionKey != "" {
			enc, err = security.NewEncryptionService(cfg.Security.EncryptionKey)
			if err != nil {
				logger.Fatal().Err(err).Msg("encryption init failed")
			}
		} else {
			logger.Warn().Msg("security.encryption_key not set; session mirror stored in plain JSON")
		}

		locker = red.NewLocker(redisClient)
		mirror = red.NewSessionCache(redisClient, cfg.Redis.TTL, enc)
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Messaging fabric ----
	msgBus := bus.New(usecase.NewStoreAppender(convs, admins), logger)
	pool := worker.NewPool(cfg.Session.WorkerCount, logger)
	pool.Start(ctx)
	defer pool.Stop()
	dedupe := bus.NewDedupe(cfg.Session.DedupeTTL, cfg.Session.DedupeMaxSize)
	notifier := notify.NewLogNotifier(logger)

	// ---- Use cases ----
	ledger := usecase.NewLedgerUseCase(users, stats, payments, logger)
	if txm != nil {
		ledger.SetTxManager(txm)
	}
	presence := usecase.NewPresenceUseCase(convs, admins, notifier, pool, dedupe, logger)
	chat := usecase.NewChatUseCase(convs, users, psychics, agents, msgBus, presence, logger)
	sessions := usecase.NewSessionUseCase(ledger, chat, agents, clock.System(), locker, logger)
	chat.SetSendGate(sessions)
	if mirror != nil {
		sessions.SetMirror(mirror)
	}
	adminChat := usecase.NewAdminChatUseCase(admins, agents, msgBus, presence, logger)
	purchases := usecase.NewPurchaseUseCase(packs, payments, ledger, logger)
	profiles := usecase.NewProfileUseCase(users, psychics, reviews, logger)
	statsUC := usecase.NewStatsUseCase(users, agents, stats, payments, sessions, logger)

	// ---- Idle session reaper ----
	reaper := sched.NewIdleReaper(cfg.Session.ReapInterval, cfg.Session.IdleTimeout, sessions, logger)
	go func() {
		if err := reaper.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("idle reaper stopped")
		}
	}()

	// ---- HTTP ----
	secret := cfg.Security.JWTSecret
	if secret == "" {
		logger.Warn().Msg("security.jwt_secret not set; using an insecure dev secret")
		secret = "dev-secret-do-not-use"
	}
	auth, err := web.NewAuthManager(web.AuthConfig{
		HMACSecret: []byte(secret),
		TTL:        cfg.Security.TokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("auth manager init failed")
	}

	srv := web.NewServer(web.Deps{
		Chat:      chat,
		Sessions:  sessions,
		AdminChat: adminChat,
		Purchases: purchases,
		Profiles:  profiles,
		Stats:     statsUC,
		Presence:  presence,
		Ledger:    ledger,
		Bus:       msgBus,
		Users:     users,
		Agents:    agents,
		Limiter:   limiter,
	}, auth, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
