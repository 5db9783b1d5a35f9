package testutil

import (
	"context"
	"time"

	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
	"github.com/practicedesk/billing/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InstallmentRepo  *InMemoryInstallmentStore
	ClientRepo       *InMemoryClientStore
	NotificationRepo *InMemoryNotificationStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	pubSub    *InMemoryPubSub
	signalBus signal.Bus
	alertSink *RecordingAlertSink
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
	_ = s.pubSub.Close()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		InstallmentRepo:  NewInMemoryInstallmentStore(),
		ClientRepo:       NewInMemoryClientStore(),
		NotificationRepo: NewInMemoryNotificationStore(),
	}

	s.pubSub = NewInMemoryPubSub()
	s.signalBus = signal.NewBus(s.pubSub, s.config, s.logger)
	s.alertSink = NewRecordingAlertSink()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.InstallmentRepo.Clear()
	s.stores.ClientRepo.Clear()
	s.stores.NotificationRepo.Clear()
	s.alertSink.Clear()
	s.pubSub.ClearMessages()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPubSub returns the in-memory pubsub behind the signal bus
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubSub
}

// GetSignalBus returns the test signal bus
func (s *BaseServiceTestSuite) GetSignalBus() signal.Bus {
	return s.signalBus
}

// GetAlertSink returns the recording alert sink
func (s *BaseServiceTestSuite) GetAlertSink() *RecordingAlertSink {
	return s.alertSink
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// SetNow moves the test clock
func (s *BaseServiceTestSuite) SetNow(now time.Time) {
	s.now = now
}

// Clock returns a function reading the test clock, suitable for ServiceParams.Now
func (s *BaseServiceTestSuite) Clock() func() time.Time {
	return func() time.Time { return s.now }
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
