package service

import (
	"time"

	"github.com/practicedesk/billing/internal/alert"
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/domain/installment"
	"github.com/practicedesk/billing/internal/domain/notification"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	InstallmentRepo  installment.Repository
	ClientRepo       client.Repository
	NotificationRepo notification.Repository

	// Signals and alerts
	SignalBus signal.Bus
	AlertSink alert.Sink

	// Now is the wall clock, replaced in tests
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	installmentRepo installment.Repository,
	clientRepo client.Repository,
	notificationRepo notification.Repository,
	signalBus signal.Bus,
	alertSink alert.Sink,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		InstallmentRepo:  installmentRepo,
		ClientRepo:       clientRepo,
		NotificationRepo: notificationRepo,
		SignalBus:        signalBus,
		AlertSink:        alertSink,
		Now:              time.Now,
	}
}

// now returns the wall clock in UTC
func (p ServiceParams) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// today returns the current calendar date in the configured notification zone
func (p ServiceParams) today() time.Time {
	return types.DateOf(p.now(), p.Config.Notifications.Location())
}
