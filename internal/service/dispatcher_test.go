package service

import (
	"testing"
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/testutil"
	"github.com/practicedesk/billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type NotificationDispatcherSuite struct {
	testutil.BaseServiceTestSuite
	dispatcher NotificationDispatcher
	today      time.Time
}

func TestNotificationDispatcher(t *testing.T) {
	suite.Run(t, new(NotificationDispatcherSuite))
}

func (s *NotificationDispatcherSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.dispatcher = s.newDispatcher()
	s.today = types.NewDate(2024, time.March, 5)

	for _, name := range []string{"Ana", "Bruno"} {
		_, err := s.GetStores().ClientRepo.AddClient(s.GetContext(), name)
		s.Require().NoError(err)
	}
}

func (s *NotificationDispatcherSuite) TearDownTest() {
	s.dispatcher.Stop()
	s.BaseServiceTestSuite.TearDownTest()
}

func (s *NotificationDispatcherSuite) newDispatcher() NotificationDispatcher {
	return NewNotificationDispatcher(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		InstallmentRepo:  s.GetStores().InstallmentRepo,
		ClientRepo:       s.GetStores().ClientRepo,
		NotificationRepo: s.GetStores().NotificationRepo,
		SignalBus:        s.GetSignalBus(),
		AlertSink:        s.GetAlertSink(),
		Now:              s.Clock(),
	})
}

func (s *NotificationDispatcherSuite) seed(items ...*installment.Installment) {
	s.Require().NoError(s.GetStores().InstallmentRepo.Seed(s.GetContext(), items...))
}

func (s *NotificationDispatcherSuite) withTiming(inst *installment.Installment, timing types.NotificationTiming) *installment.Installment {
	inst.NotificationTiming = timing
	return inst
}

func (s *NotificationDispatcherSuite) TestRepeatedPassesAlertOncePerDay() {
	s.seed(newInstallment("a-1", "Ana", 1, s.today, 100))

	for i := 0; i < 5; i++ {
		_, err := s.dispatcher.RunPass(s.GetContext())
		s.Require().NoError(err)
	}

	alerts := s.GetAlertSink().Alerts()
	s.Require().Len(alerts, 1)
	s.Equal(types.AlertSeverityWarning, alerts[0].Severity)
	s.Equal("a-1", alerts[0].Context.InstallmentID)
	s.Equal("Ana", alerts[0].Context.ClientName)
	s.Equal("100.00", alerts[0].Context.Amount)
	s.Equal(s.today, alerts[0].Context.DueDate)
	s.Contains(alerts[0].Message, "due today")
}

func (s *NotificationDispatcherSuite) TestIndependentDispatchersShareDedup() {
	s.seed(newInstallment("a-1", "Ana", 1, s.today, 100))

	other := s.newDispatcher()
	_, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	_, err = other.RunPass(s.GetContext())
	s.Require().NoError(err)

	s.Equal(1, s.GetAlertSink().Count())
}

func (s *NotificationDispatcherSuite) TestNewDayAlertsAgain() {
	s.seed(newInstallment("a-1", "Ana", 1, s.today.AddDate(0, 0, -2), 100))

	_, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	_, err = s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, s.GetAlertSink().Count())

	s.SetNow(s.GetNow().Add(24 * time.Hour))
	res, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	s.Equal(s.today.AddDate(0, 0, 1), res.Day)
	s.Equal(1, res.Emitted)

	alerts := s.GetAlertSink().ForInstallment("a-1")
	s.Require().Len(alerts, 2)
	s.Equal(2, alerts[0].Urgency.Days)
	s.Equal(3, alerts[1].Urgency.Days)
	s.Equal(2, s.GetStores().NotificationRepo.Resets())
}

func (s *NotificationDispatcherSuite) TestTimingSelectsTheAlertDay() {
	s.seed(
		newInstallment("today", "Ana", 1, s.today, 10),
		newInstallment("tomorrow-default", "Ana", 2, s.today.AddDate(0, 0, 1), 10),
		s.withTiming(newInstallment("tomorrow-early", "Ana", 3, s.today.AddDate(0, 0, 1), 10), types.NotificationTimingOneDayBefore),
		s.withTiming(newInstallment("three-days", "Bruno", 1, s.today.AddDate(0, 0, 3), 10), types.NotificationTimingThreeDaysBefore),
		s.withTiming(newInstallment("seven-days", "Bruno", 2, s.today.AddDate(0, 0, 6), 10), types.NotificationTimingSevenDaysBefore),
		s.withTiming(newInstallment("next-week", "Bruno", 3, s.today.AddDate(0, 0, 5), 10), types.NotificationTimingNextWeek),
	)

	res, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	s.Equal(6, res.Considered)
	s.Equal(4, res.Emitted)

	for _, id := range []string{"today", "tomorrow-early", "three-days", "next-week"} {
		s.Len(s.GetAlertSink().ForInstallment(id), 1, id)
	}
	for _, id := range []string{"tomorrow-default", "seven-days"} {
		s.Empty(s.GetAlertSink().ForInstallment(id), id)
	}
}

func (s *NotificationDispatcherSuite) TestOverdueAlwaysAlertsWithEscalatingSeverity() {
	s.seed(
		s.withTiming(newInstallment("late", "Ana", 1, s.today.AddDate(0, 0, -3), 10), types.NotificationTimingSevenDaysBefore),
		newInstallment("very-late", "Bruno", 1, s.today.AddDate(0, 0, -10), 10),
		newInstallment("forgotten", "Bruno", 2, s.today.AddDate(0, 0, -45), 10),
	)

	_, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)

	late := s.GetAlertSink().ForInstallment("late")
	s.Require().Len(late, 1)
	s.Equal(types.AlertSeverityWarning, late[0].Severity)

	veryLate := s.GetAlertSink().ForInstallment("very-late")
	s.Require().Len(veryLate, 1)
	s.Equal(types.AlertSeverityError, veryLate[0].Severity)
	s.Contains(veryLate[0].Message, "10 days overdue")

	s.Empty(s.GetAlertSink().ForInstallment("forgotten"))
}

func (s *NotificationDispatcherSuite) TestSettledAndOrphanedInstallmentsStayQuiet() {
	settled := newInstallment("paid", "Ana", 1, s.today, 10)
	settled.Settled = true
	s.seed(
		settled,
		newInstallment("orphan", "Daniel", 1, s.today, 10),
	)

	res, err := s.dispatcher.RunPass(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, res.Emitted)
	s.Equal(0, s.GetAlertSink().Count())
}

func (s *NotificationDispatcherSuite) TestStartRunsInitialPassAndRejectsSecondStart() {
	s.seed(newInstallment("a-1", "Ana", 1, s.today, 100))

	s.Require().NoError(s.dispatcher.Start(s.GetContext()))
	s.Equal(1, s.GetAlertSink().Count())

	err := s.dispatcher.Start(s.GetContext())
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	s.dispatcher.Stop()
	s.dispatcher.Stop()
	s.Require().NoError(s.dispatcher.Start(s.GetContext()))
	s.Equal(1, s.GetAlertSink().Count())
}

func (s *NotificationDispatcherSuite) TestChangeSignalTriggersPass() {
	s.Require().NoError(s.dispatcher.Start(s.GetContext()))
	s.Equal(0, s.GetAlertSink().Count())

	s.seed(newInstallment("a-1", "Ana", 1, s.today, 100))
	s.Require().NoError(s.GetSignalBus().Publish(s.GetContext(), signal.New(types.SignalInstallmentsChanged, "a-1")))

	s.Eventually(func() bool {
		return s.GetAlertSink().Count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *NotificationDispatcherSuite) TestNoSignalsAfterStop() {
	s.Require().NoError(s.dispatcher.Start(s.GetContext()))
	s.dispatcher.Stop()

	s.seed(newInstallment("a-1", "Ana", 1, s.today, 100))
	s.Require().NoError(s.GetSignalBus().Publish(s.GetContext(), signal.New(types.SignalManualRefresh, "")))

	s.Never(func() bool {
		return s.GetAlertSink().Count() > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestUntilNextMidnight(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("time zone database not available")
	}

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want time.Duration
	}{
		{"utc evening", time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC), time.UTC, 2*time.Hour + midnightSlack},
		{"utc just after midnight", time.Date(2024, 3, 5, 0, 0, 1, 0, time.UTC), time.UTC, 24*time.Hour - time.Second + midnightSlack},
		// 22:00 UTC is 19:00 in Sao Paulo
		{"other zone", time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC), sp, 5*time.Hour + midnightSlack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, untilNextMidnight(tt.now, tt.loc))
		})
	}
}
