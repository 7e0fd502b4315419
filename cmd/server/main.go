package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/HammerMeetNail/timegift/internal/config"
	"github.com/HammerMeetNail/timegift/internal/database"
	"github.com/HammerMeetNail/timegift/internal/handlers"
	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/middleware"
	"github.com/HammerMeetNail/timegift/internal/scheduler"
	"github.com/HammerMeetNail/timegift/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", logging.Fields{"env": cfg.Server.Environment})
	}

	logger.Info("Starting TimeGift server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to PostgreSQL", logging.Fields{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), cfg.Jobs.MigrationsPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	var redisClient *redis.Client
	var redisHealth handlers.HealthChecker
	if cfg.Redis.Host != "" {
		logger.Info("Connecting to Redis", logging.Fields{"addr": cfg.Redis.Addr()})
		redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisDB.Close() }()
		redisClient = redisDB.Client
		redisHealth = redisDB
		logger.Info("Connected to Redis")
	} else {
		logger.Warn("Redis not configured; job leases and rate limits are disabled")
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; user endpoints will reject every request")
	}
	if cfg.Jobs.CronSecret == "" {
		logger.Warn("CRON_SECRET not set; job and admin endpoints are open")
	}

	dbAdapter := services.NewPoolAdapter(db.Pool)

	userService := services.NewUserService(dbAdapter)
	emailService := services.NewEmailService(&cfg.Email)
	notificationService := services.NewNotificationService(dbAdapter, emailService, logger)
	notificationService.SetAsyncContext(ctx)
	giftService := services.NewGiftService(dbAdapter, userService, notificationService, logger)
	friendService := services.NewFriendService(dbAdapter, notificationService, logger)
	reminderService := services.NewReminderService(dbAdapter)
	settingsService := services.NewSettingsService(dbAdapter, logger)
	decayService := services.NewDecayService(dbAdapter, logger)
	exchangeService := services.NewExchangeService(dbAdapter, logger)
	jobService := services.NewJobService(
		settingsService,
		decayService,
		exchangeService,
		services.NewRedisLocker(redisClient),
		cfg.Jobs.LeaseTTL,
		logger,
	)

	healthHandler := handlers.NewHealthHandler(db, redisHealth)
	jobHandler := handlers.NewJobHandler(jobService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	giftHandler := handlers.NewGiftHandler(giftService)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	friendHandler := handlers.NewFriendHandler(friendService)
	reminderHandler := handlers.NewReminderHandler(reminderService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer, userService)
	cronAuth := middleware.NewCronAuth(cfg.Jobs.CronSecret)
	jobLimiter := middleware.NewJobTriggerRateLimiter(redisClient, cfg.Jobs.TriggerLimit, cfg.Jobs.TriggerWindow)
	cors := middleware.NewCORS(cfg.CORS.AllowedOrigins)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)

	requireCron := func(h http.HandlerFunc) http.Handler { return cronAuth.Apply(h) }
	requireJob := func(h http.HandlerFunc) http.Handler { return jobLimiter.Limit(cronAuth.Apply(h)) }
	requireUser := func(h http.HandlerFunc) http.Handler { return authMiddleware.RequireAuth(h) }

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Batch job triggers
	mux.Handle("POST /api/decay", requireJob(jobHandler.Decay))
	mux.Handle("POST /api/random-exchange", requireJob(jobHandler.RandomExchange))

	// Admin settings
	mux.Handle("GET /api/admin/settings", requireCron(settingsHandler.List))
	mux.Handle("GET /api/admin/settings/decay", requireCron(settingsHandler.GetDecay))
	mux.Handle("PUT /api/admin/settings/decay", requireCron(settingsHandler.UpdateDecay))
	mux.Handle("GET /api/admin/settings/random-exchange", requireCron(settingsHandler.GetExchange))
	mux.Handle("PUT /api/admin/settings/random-exchange", requireCron(settingsHandler.UpdateExchange))

	// Gift endpoints
	mux.Handle("POST /api/gifts", requireUser(giftHandler.Create))
	mux.Handle("GET /api/gifts", requireUser(giftHandler.List))
	mux.Handle("GET /api/gifts/{id}", requireUser(giftHandler.Get))
	mux.Handle("POST /api/gifts/{id}/accept", requireUser(giftHandler.Accept))
	mux.Handle("POST /api/gifts/{id}/schedule", requireUser(giftHandler.Schedule))
	mux.Handle("POST /api/gifts/{id}/complete", requireUser(giftHandler.Complete))

	// Random exchange queue
	mux.Handle("POST /api/random-exchange/queue", requireUser(exchangeHandler.Join))
	mux.Handle("GET /api/random-exchange/queue", requireUser(exchangeHandler.Status))

	// Friends
	mux.Handle("GET /api/friends", requireUser(friendHandler.List))
	mux.Handle("GET /api/friends/search", requireUser(friendHandler.Search))
	mux.Handle("POST /api/friends/requests", requireUser(friendHandler.SendRequest))
	mux.Handle("PUT /api/friends/requests/{id}/accept", requireUser(friendHandler.AcceptRequest))
	mux.Handle("PUT /api/friends/requests/{id}/reject", requireUser(friendHandler.RejectRequest))
	mux.Handle("DELETE /api/friends/requests/{id}", requireUser(friendHandler.CancelRequest))
	mux.Handle("DELETE /api/friends/{id}", requireUser(friendHandler.Remove))

	// Notifications and reminders
	mux.Handle("GET /api/notifications", requireUser(notificationHandler.List))
	mux.Handle("GET /api/notifications/unread-count", requireUser(notificationHandler.UnreadCount))
	mux.Handle("PUT /api/notifications/read-all", requireUser(notificationHandler.MarkAllRead))
	mux.Handle("PUT /api/notifications/{id}/read", requireUser(notificationHandler.MarkRead))
	mux.Handle("GET /api/reminders", requireUser(reminderHandler.List))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = cors.Apply(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", logging.Fields{"addr": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	if cfg.Jobs.Interval > 0 {
		jobs := scheduler.New(jobService, cfg.Jobs.Interval, logger)
		g.Go(func() error { return jobs.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
