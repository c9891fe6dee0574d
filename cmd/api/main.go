package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/employee-service/internal/api/http"
	"github.com/spec-kit/employee-service/internal/api/http/handlers"
	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/config"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/repository/memory"
	"github.com/spec-kit/employee-service/internal/service"
	"github.com/spec-kit/employee-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	publisher := events.NewKafkaPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka publisher", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	deps := buildDependencies(pg, dispatcher, logger, metrics)

	var cache service.ReportCache
	if redis.Enabled() {
		cache = service.NewRedisReportCache(redis.Client, cfg.Report.CacheTTL())
	}

	authService := service.NewAuthService(*cfg, deps)
	reportService := service.NewReportService(deps, cache)
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartEventWorkers(dispatcher, notificationService, reportService, publisher)

	admin, created, err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminUser, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPass)
	if err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("username", admin.Username))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(service.NewUserService(deps, cfg.Auth.BcryptCost)),
		Companies:      handlers.NewCompaniesHandler(service.NewCompanyService(deps)),
		Departments:    handlers.NewDepartmentsHandler(service.NewDepartmentService(deps)),
		Employees:      handlers.NewEmployeesHandler(service.NewEmployeeService(deps), reportService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), deps.Users),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

// buildDependencies selects postgres repositories when a pool is available
// and the in-memory store otherwise.
func buildDependencies(pg *persistence.Postgres, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) service.Dependencies {
	deps := service.Dependencies{
		Tx:         pg.TxManager(),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	}
	if pg.Enabled() {
		deps.Companies = repository.NewCompanyRepository(pg.Pool)
		deps.Departments = repository.NewDepartmentRepository(pg.Pool)
		deps.Users = repository.NewUserRepository(pg.Pool)
		deps.Employees = repository.NewEmployeeRepository(pg.Pool)
		deps.History = repository.NewEmployeeHistoryRepository(pg.Pool)
		return deps
	}
	store := memory.NewStore()
	deps.Companies = store.Companies()
	deps.Departments = store.Departments()
	deps.Users = store.Users()
	deps.Employees = store.Employees()
	deps.History = store.History()
	return deps
}
