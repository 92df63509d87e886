package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steeven-js/madinia-cyber/internal/app/migrate"
	httpx "github.com/steeven-js/madinia-cyber/internal/http"
	"github.com/steeven-js/madinia-cyber/internal/repository/postgres"
	"github.com/steeven-js/madinia-cyber/internal/service/auth"
	"github.com/steeven-js/madinia-cyber/internal/service/identity"
	"github.com/steeven-js/madinia-cyber/internal/service/logs"
	"github.com/steeven-js/madinia-cyber/internal/ws"
	"github.com/steeven-js/madinia-cyber/pkg/config"
	"github.com/steeven-js/madinia-cyber/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	loc := cfg.Location()
	hub := ws.NewHub(ws.WithLogger(log))
	defer hub.Close()

	channel := logs.NewFileChannel(cfg.LogDir, cfg.LogChannelName, cfg.Environment,
		logs.WithDriver(cfg.LogChannelDriver),
		logs.WithRetention(cfg.LogChannelDays),
		logs.WithChannelLocation(loc),
		logs.WithPublisher(hub),
	)
	logSvc := logs.New(cfg.LogDir, cfg.LogChannelName, channel, log, logs.WithLocation(loc))

	var provider identity.Provider
	firebaseProvider, err := identity.NewFirebaseProvider(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
	if err != nil {
		log.Warn("firebase provider unavailable", "error", err)
		provider = identity.Unavailable(err)
	} else {
		log.Info("firebase provider ready", "project", firebaseProvider.ProjectID())
		provider = firebaseProvider
	}
	identitySvc := identity.New(provider, logSvc, log, cfg)
	authSvc := auth.New(repo, log, cfg)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, logSvc, identitySvc, hub, limiter, httpx.Settings{
		SessionCookieName:   cfg.SessionCookieName,
		SessionCookieSecure: cfg.SessionCookieSecure,
		SessionTTL:          cfg.AccessTokenTTL,
		StreamHeartbeat:     cfg.StreamHeartbeat,
	}, runner.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "log_dir", cfg.LogDir, "channel", cfg.LogChannelName)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// streams never finish on their own
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
