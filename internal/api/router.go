package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/practicedesk/billing/internal/api/v1"
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/rest/middleware"
	"github.com/practicedesk/billing/internal/types"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Payment      *v1.PaymentHandler
	Agreement    *v1.AgreementHandler
	Notification *v1.NotificationHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.RequestLogger(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	v1Router := router.Group("/v1")

	payments := v1Router.Group("/payments")
	{
		payments.GET("/groups", handlers.Payment.ListGroups)
		payments.POST("", handlers.Payment.CreateInstallment)
		payments.POST("/cleanup", handlers.Payment.CleanupOrphans)
		payments.POST("/:id/settle", handlers.Payment.Settle)
		payments.POST("/:id/postpone", handlers.Payment.Postpone)
		payments.DELETE("/:id", handlers.Payment.Delete)
	}

	agreements := v1Router.Group("/agreements")
	{
		agreements.PUT("/:parent_id", handlers.Agreement.SaveAgreement)
		agreements.DELETE("/:parent_id", handlers.Agreement.DeleteAgreement)
	}

	v1Router.POST("/notifications/run", handlers.Notification.RunPass)
	v1Router.POST("/signals", handlers.Notification.PublishSignal)

	return router
}
