package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/practicedesk/billing/internal/alert"
	"github.com/practicedesk/billing/internal/api"
	v1 "github.com/practicedesk/billing/internal/api/v1"
	"github.com/practicedesk/billing/internal/cache"
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/postgres"
	"github.com/practicedesk/billing/internal/pubsub"
	"github.com/practicedesk/billing/internal/pubsub/memory"
	"github.com/practicedesk/billing/internal/repository"
	"github.com/practicedesk/billing/internal/service"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
	"github.com/practicedesk/billing/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		// Request validation reads the package level validator
		fx.Invoke(validator.NewValidator),

		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,

			// PubSub
			providePubSub,

			// Signals and alerts
			signal.NewBus,
			alert.NewSink,

			// Repositories
			repository.NewInstallmentRepository,
			repository.NewClientRepository,
			repository.NewNotificationRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAgreementService,
			service.NewPaymentControlService,
			service.NewNotificationDispatcher,
		),
	)

	// API layer
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) pubsub.PubSub {
	ps := memory.NewPubSub(log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
	log.Infow("pubsub ready", "type", cfg.Signals.PubSub, "topic", cfg.Signals.Topic)
	return ps
}

func provideHandlers(
	logger *logger.Logger,
	agreementService service.AgreementService,
	paymentService service.PaymentControlService,
	dispatcher service.NotificationDispatcher,
	bus signal.Bus,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Payment:      v1.NewPaymentHandler(paymentService, logger),
		Agreement:    v1.NewAgreementHandler(agreementService, logger),
		Notification: v1.NewNotificationHandler(dispatcher, bus, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	dispatcher service.NotificationDispatcher,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	registerDatabase(lc, db, log)

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startDispatcher(lc, dispatcher, cfg, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeDispatcher:
		startDispatcher(lc, dispatcher, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func registerDatabase(lc fx.Lifecycle, db *postgres.DB, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Applying database schema...")
			return db.Migrate(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

func startDispatcher(
	lc fx.Lifecycle,
	dispatcher service.NotificationDispatcher,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	if !cfg.Notifications.Enabled {
		log.Info("Notification dispatcher disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return dispatcher.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			dispatcher.Stop()
			return nil
		},
	})
}
