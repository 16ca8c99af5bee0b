package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-guard/internal/api/http"
	"github.com/spec-kit/storefront-guard/internal/api/http/handlers"
	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/config"
	"github.com/spec-kit/storefront-guard/internal/domain"
	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/observability"
	"github.com/spec-kit/storefront-guard/internal/persistence"
	"github.com/spec-kit/storefront-guard/internal/session"
	"github.com/spec-kit/storefront-guard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, dependencies, closeBackend := openBackend(ctx, cfg, logger)
	defer closeBackend()

	metrics := observability.NewMetrics()
	stores := session.NewFactory(kv, session.Keys{
		Prefix: cfg.Session.KeyPrefix,
		Record: cfg.Session.RecordKey,
		Legacy: cfg.Session.LegacyKey,
	}, cfg.Session.TTL(), logger)
	activity := session.NewActivityLog(stores, cfg.Activity.MaxEntries)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, activity, logger)

	decoder := auth.NewDecoder()
	paths := auth.Routes{
		Login:        cfg.Routes.LoginPath,
		Unauthorized: cfg.Routes.UnauthorizedPath,
		Dashboard:    cfg.Routes.DashboardPath,
		Homes: []auth.RoleHome{
			{Role: domain.RoleAdmin, Path: cfg.Routes.AdminPath},
			{Role: domain.RoleUser, Path: cfg.Routes.DashboardPath},
		},
	}
	guard := auth.NewGuard(paths, auth.GuardDependencies{Decoder: decoder, Logger: logger})

	routeGuard := auth.NewRouteGuard(auth.RouteGuardDependencies{
		Guard:        guard,
		Stores:       stores,
		Events:       dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.App.Env == "production",
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareOptions{
		Timeout:   cfg.App.RequestTimeout(),
		LoginPath: cfg.Routes.LoginPath,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Pages:  handlers.NewPagesHandler(activity),
		Session: handlers.NewSessionHandler(handlers.SessionDependencies{
			Guard:   guard,
			Decoder: decoder,
			Stores:  stores,
			Events:  dispatcher,
			Logger:  logger,
		}),
		Guard: routeGuard,
		Paths: paths,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("session_backend", cfg.Session.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// openBackend selects the session KV named by SESSION_BACKEND.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.KV, map[string]handlers.Pinger, func()) {
	switch cfg.Session.Backend {
	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return session.NewPostgresKV(pg.PoolHandle()), map[string]handlers.Pinger{"postgres": pg}, pg.Close
	case config.BackendMemory:
		logger.Warn("using in-memory session backend; sessions are lost on restart")
		return session.NewMemoryKV(), nil, func() {}
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		return session.NewRedisKV(redis.Client), map[string]handlers.Pinger{"redis": redis}, redis.Close
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
