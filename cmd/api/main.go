// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/socialai/internal/admin"
	"github.com/carterperez-dev/socialai/internal/auth"
	"github.com/carterperez-dev/socialai/internal/config"
	"github.com/carterperez-dev/socialai/internal/content"
	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/generate"
	"github.com/carterperez-dev/socialai/internal/health"
	"github.com/carterperez-dev/socialai/internal/llm"
	"github.com/carterperez-dev/socialai/internal/middleware"
	"github.com/carterperez-dev/socialai/internal/post"
	"github.com/carterperez-dev/socialai/internal/profile"
	"github.com/carterperez-dev/socialai/internal/prompt"
	"github.com/carterperez-dev/socialai/internal/quota"
	"github.com/carterperez-dev/socialai/internal/server"
	"github.com/carterperez-dev/socialai/internal/user"
	"github.com/carterperez-dev/socialai/internal/wix"
)

const (
	drainDelay         = 5 * time.Second
	tokenPurgeInterval = time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	generator, err := llm.New(cfg.LLM, prompt.SystemInstruction)
	if err != nil {
		return err
	}
	logger.Info("generation backend configured",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)

	profileRepo := profile.NewRepository(db.DB)
	profileSvc := profile.NewService(profileRepo)
	profileHandler := profile.NewHandler(profileSvc)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, profileSvc)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		auth.NewRedisDenylist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc)

	generateSvc := generate.NewService(
		profileSvc,
		quota.NewGate(profileRepo),
		content.NewFetcher(content.OptionsFromConfig(cfg.Fetch)),
		generator,
	)
	generateHandler := generate.NewHandler(generateSvc)

	postSvc := post.NewService(post.NewRepository(db.DB))
	postHandler := post.NewHandler(postSvc)

	wixClient := wix.NewClient(wix.OptionsFromConfig(cfg.Wix))
	wixHandler := wix.NewHandler(wixClient, postSvc)
	if !wixClient.Configured() {
		logger.Info("wix publishing disabled: WIX_API_KEY not set")
	}

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if wixClient.Configured() {
		deps = append(deps, health.Dependency{
			Name:     "wix",
			Checker:  wixClient,
			Optional: true,
		})
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Profiles:   profileSvc,
		Posts:      postSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Scope: "global",
			Limit: middleware.LimitFromConfig(cfg.RateLimit),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	generateLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Scope:   "generate",
		Limit:   middleware.LimitFromConfig(cfg.GenerateLimit),
		KeyFunc: middleware.KeyByUser,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		generateHandler.RegisterRoutes(r, authenticator, generateLimiter)
		profileHandler.RegisterRoutes(r, authenticator)
		postHandler.RegisterRoutes(r, authenticator)
		wixHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)

		profileHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	go purgeExpiredTokens(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func purgeExpiredTokens(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired refresh tokens", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
