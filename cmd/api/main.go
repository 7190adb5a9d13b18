package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/greenhouse-project/support-service/internal/api/http"
	"github.com/greenhouse-project/support-service/internal/api/http/handlers"
	"github.com/greenhouse-project/support-service/internal/auth"
	"github.com/greenhouse-project/support-service/internal/config"
	"github.com/greenhouse-project/support-service/internal/events"
	"github.com/greenhouse-project/support-service/internal/notify"
	"github.com/greenhouse-project/support-service/internal/observability"
	"github.com/greenhouse-project/support-service/internal/persistence"
	"github.com/greenhouse-project/support-service/internal/projectdata"
	"github.com/greenhouse-project/support-service/internal/repository"
	"github.com/greenhouse-project/support-service/internal/service"
	"github.com/greenhouse-project/support-service/internal/storage"
	"github.com/greenhouse-project/support-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	store := repository.NewStore(pg.PoolHandle())

	dispatcher := events.NewQueueDispatcher(logger, cfg.Notification.QueueSize, cfg.Notification.Workers)
	defer dispatcher.Close()

	projects := projectdata.NewOpenSolarProvider(cfg.OpenSolar, redis.Client, logger)
	files := storage.NewLocalFileStore(cfg.Storage)
	notifier := notify.NewLogNotifier(logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, store.Users())

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Projects:   projects,
		Assigner:   service.NewAssignmentService(logger),
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	ratingService := service.NewRatingService(store, dispatcher, logger)
	maintenanceService := service.NewMaintenanceService(store, logger)
	commentService := service.NewCommentService(store, files, logger)
	authService := service.NewAuthService(store, tokens, logger)

	notificationService := service.NewNotificationService(dispatcher, notifier, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Ratings:        handlers.NewRatingHandler(ratingService, cfg.App.FrontendBaseURL),
		Admin:          handlers.NewAdminHandler(maintenanceService),
		AuthMiddleware: authMiddleware,
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
