package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civic-desk/complaint-service/internal/api/http"
	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/persistence"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
	"github.com/civic-desk/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		accountRepo   repository.AccountRepository
		complaintRepo repository.ComplaintRepository
		historyRepo   repository.ComplaintHistoryRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		accountRepo = repository.NewAccountRepository(pool)
		complaintRepo = repository.NewComplaintRepository(pool)
		historyRepo = repository.NewComplaintHistoryRepository(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		accountRepo, complaintRepo, historyRepo = store.Accounts(), store.Complaints(), store.History()
	}

	metrics := observability.NewMetrics()
	dir := directory.New()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL(), cfg.Auth.CitizenTTL())
	var revocation auth.RevocationList
	if redis.Enabled() {
		revocation = auth.NewRedisRevocationList(redis.Client, cfg.Redis.Timeout())
	}
	guard := auth.NewAuthorityGuard(auth.GuardDependencies{
		Tokens:     tokens,
		Accounts:   accountRepo,
		Revocation: revocation,
		Directory:  dir,
		Logger:     logger,
		Metrics:    metrics,
	})

	authorityService := service.NewAuthorityService(service.AuthorityDependencies{
		AccountRepo: accountRepo,
		Tokens:      tokens,
		Guard:       guard,
		Revocation:  revocation,
		Directory:   dir,
		Logger:      logger,
		Metrics:     metrics,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		ComplaintRepo: complaintRepo,
		HistoryRepo:   historyRepo,
		Directory:     dir,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})
	citizenService := service.NewCitizenService(cfg.Auth, service.CitizenDependencies{
		AccountRepo:   accountRepo,
		ComplaintRepo: complaintRepo,
		Tokens:        tokens,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	cookies := auth.CookieWriter{Secure: cfg.Auth.CookieSecure}
	throttle := handlers.NewLoginThrottle(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, Immutable: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Authority:      handlers.NewAuthorityHandler(authorityService, dir, cookies, throttle, logger, metrics),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, dir),
		Citizen:        handlers.NewCitizenHandler(citizenService, dir, cookies),
		Guard:          guard,
		CitizenSession: auth.NewCitizenSession(tokens, accountRepo),
		Cookies:        cookies,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
