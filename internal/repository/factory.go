package repository

import (
	"github.com/practicedesk/billing/internal/cache"
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/domain/installment"
	"github.com/practicedesk/billing/internal/domain/notification"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/postgres"
	cacheRepo "github.com/practicedesk/billing/internal/repository/cache"
	postgresRepo "github.com/practicedesk/billing/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
	MemoryRepo   RepositoryType = "memory"
)

func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return postgresRepo.NewInstallmentRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

// NewNotificationRepository picks the marker store configured under
// notifications.marker_store
func NewNotificationRepository(
	cfg *config.Configuration,
	db *postgres.DB,
	c cache.Cache,
	logger *logger.Logger,
) notification.Repository {
	if RepositoryType(cfg.Notifications.MarkerStore) == MemoryRepo {
		return cacheRepo.NewNotificationRepository(c, logger)
	}
	return postgresRepo.NewNotificationRepository(db, logger)
}
