package service

import (
	"errors"
	"testing"
	"time"

	"github.com/practicedesk/billing/internal/api/dto"
	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/testutil"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentControlServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentControlService
}

func TestPaymentControlService(t *testing.T) {
	suite.Run(t, new(PaymentControlServiceSuite))
}

func (s *PaymentControlServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentControlService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		InstallmentRepo:  s.GetStores().InstallmentRepo,
		ClientRepo:       s.GetStores().ClientRepo,
		NotificationRepo: s.GetStores().NotificationRepo,
		SignalBus:        s.GetSignalBus(),
		AlertSink:        s.GetAlertSink(),
		Now:              s.Clock(),
	})

	for _, name := range []string{"Bruno", "Ana", "Carla"} {
		_, err := s.GetStores().ClientRepo.AddClient(s.GetContext(), name)
		s.Require().NoError(err)
	}
}

func (s *PaymentControlServiceSuite) seed(items ...*installment.Installment) {
	s.Require().NoError(s.GetStores().InstallmentRepo.Seed(s.GetContext(), items...))
}

func newInstallment(id, clientName string, seq int, due time.Time, amount int64) *installment.Installment {
	return &installment.Installment{
		ID:                 id,
		Kind:               types.InstallmentKindMonthly,
		ClientName:         clientName,
		Sequence:           seq,
		TotalCount:         3,
		Amount:             decimal.NewFromInt(amount),
		DueDate:            due,
		NotificationTiming: types.NotificationTimingOnDueDate,
	}
}

func groupNames(groups []*PaymentGroup) []string {
	return lo.Map(groups, func(g *PaymentGroup, _ int) string { return g.ClientName })
}

func (s *PaymentControlServiceSuite) TestGroupsAreOrderedByDueDateThenName() {
	s.seed(
		newInstallment("b-1", "Bruno", 1, types.NewDate(2024, time.March, 10), 50),
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 10), 100),
		newInstallment("c-1", "Carla", 1, types.NewDate(2024, time.March, 1), 80),
	)

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{"Carla", "Ana", "Bruno"}, groupNames(groups))
	s.Equal(types.UrgencyOverdue, groups[0].Urgency.Kind)
	s.Equal(4, groups[0].Urgency.Days)
}

func (s *PaymentControlServiceSuite) TestRepresentativeIsEarliestThenLowestSequence() {
	due := types.NewDate(2024, time.April, 5)
	s.seed(
		newInstallment("a-3", "Ana", 3, due, 100),
		newInstallment("a-2", "Ana", 2, due, 100),
		newInstallment("a-4", "Ana", 4, types.NewDate(2024, time.May, 5), 100),
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100),
	)
	_, err := s.service.MarkAsPaid(s.GetContext(), "a-1")
	s.Require().NoError(err)

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Require().Len(groups, 1)

	g := groups[0]
	s.Equal("a-2", g.Representative.ID)
	s.Equal([]string{"a-3", "a-4"}, lo.Map(g.Additional, func(item *installment.Installment, _ int) string { return item.ID }))
	s.Equal(3, g.PendingCount)
	s.True(decimal.NewFromInt(300).Equal(g.PendingAmount))
}

func (s *PaymentControlServiceSuite) TestClientNamesMatchIgnoringCaseAndSpaces() {
	s.seed(
		newInstallment("a-1", " ana ", 1, types.NewDate(2024, time.March, 10), 10),
		newInstallment("a-2", "ANA", 2, types.NewDate(2024, time.April, 10), 10),
	)

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal(2, groups[0].PendingCount)
}

func (s *PaymentControlServiceSuite) TestOrphanedInstallmentsAreHidden() {
	s.Require().True(s.GetConfig().Cache.Enabled)
	s.seed(
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 10), 100),
		newInstallment("d-1", "Daniel", 1, types.NewDate(2024, time.March, 8), 100),
	)

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{"Ana"}, groupNames(groups))
	s.Equal(2, s.GetStores().InstallmentRepo.Len())

	_, err = s.GetStores().ClientRepo.AddClient(s.GetContext(), "Daniel")
	s.Require().NoError(err)
	groups, err = s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{"Daniel", "Ana"}, groupNames(groups))

	s.Require().NoError(s.GetStores().ClientRepo.RemoveClient(s.GetContext(), "Ana"))
	groups, err = s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{"Daniel"}, groupNames(groups))
}

func (s *PaymentControlServiceSuite) TestClientChangesApplyWithoutSignals() {
	s.Require().True(s.GetConfig().Cache.Enabled)
	s.seed(newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 10), 100))

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Len(groups, 1)

	s.Require().NoError(s.GetStores().ClientRepo.RemoveClient(s.GetContext(), "Ana"))
	groups, err = s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Empty(groups)

	req := &dto.CreateInstallmentRequest{
		ClientName: "Elisa",
		Amount:     decimal.NewFromInt(30),
		DueDate:    "2024-03-20",
	}
	_, err = s.service.CreateInstallment(s.GetContext(), req)
	s.True(ierr.IsValidation(err))

	_, err = s.GetStores().ClientRepo.AddClient(s.GetContext(), "Elisa")
	s.Require().NoError(err)
	_, err = s.service.CreateInstallment(s.GetContext(), req)
	s.Require().NoError(err)

	groups, err = s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{"Elisa"}, groupNames(groups))
}

func (s *PaymentControlServiceSuite) TestFailingClientListHidesEverything() {
	s.seed(newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 10), 100))
	s.GetStores().ClientRepo.FailWith(errors.New("connection reset"))

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Empty(groups)
}

func (s *PaymentControlServiceSuite) TestMarkAsPaidRegroups() {
	s.seed(
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100),
		newInstallment("b-1", "Bruno", 1, types.NewDate(2024, time.March, 6), 100),
	)

	groups, err := s.service.MarkAsPaid(s.GetContext(), "a-1")
	s.Require().NoError(err)
	s.Equal([]string{"Bruno"}, groupNames(groups))

	items, err := s.GetStores().InstallmentRepo.List(s.GetContext())
	s.Require().NoError(err)
	s.Len(items, 2)
	s.True(items[0].Settled)
	s.Equal(s.GetNow(), items[0].UpdatedAt)

	messages := s.GetPubSub().GetMessages(s.GetConfig().Signals.Topic)
	s.Require().Len(messages, 1)
	s.Equal(string(types.SignalInstallmentsChanged), messages[0].Metadata.Get("signal_type"))
}

func (s *PaymentControlServiceSuite) TestMarkAsPaidTwiceWritesOnce() {
	s.seed(newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100))

	_, err := s.service.MarkAsPaid(s.GetContext(), "a-1")
	s.Require().NoError(err)
	_, err = s.service.MarkAsPaid(s.GetContext(), "a-1")
	s.Require().NoError(err)
	s.Equal(1, s.GetStores().InstallmentRepo.Writes())
}

func (s *PaymentControlServiceSuite) TestDelete() {
	s.seed(
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100),
		newInstallment("a-2", "Ana", 2, types.NewDate(2024, time.April, 5), 100),
	)

	groups, err := s.service.Delete(s.GetContext(), "a-1")
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal("a-2", groups[0].Representative.ID)
	s.Equal(1, s.GetStores().InstallmentRepo.Len())

	_, err = s.service.Delete(s.GetContext(), "a-1")
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentControlServiceSuite) TestPostpone() {
	s.seed(
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100),
		newInstallment("b-1", "Bruno", 1, types.NewDate(2024, time.March, 12), 100),
	)

	groups, err := s.service.Postpone(s.GetContext(), "a-1", &dto.PostponeInstallmentRequest{DueDate: "2024-03-20"})
	s.Require().NoError(err)
	s.Equal([]string{"Bruno", "Ana"}, groupNames(groups))
	s.Equal(types.NewDate(2024, time.March, 20), groups[1].Representative.DueDate)

	_, err = s.service.Postpone(s.GetContext(), "a-1", &dto.PostponeInstallmentRequest{DueDate: "20/03/2024"})
	s.True(ierr.IsValidation(err))

	_, err = s.service.MarkAsPaid(s.GetContext(), "a-1")
	s.Require().NoError(err)
	_, err = s.service.Postpone(s.GetContext(), "a-1", &dto.PostponeInstallmentRequest{DueDate: "2024-04-01"})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentControlServiceSuite) TestCreateInstallment() {
	inst, err := s.service.CreateInstallment(s.GetContext(), &dto.CreateInstallmentRequest{
		ClientName: "Carla",
		Amount:     decimal.RequireFromString("75.50"),
		DueDate:    "2024-03-15",
	})
	s.Require().NoError(err)
	s.Contains(inst.ID, types.UUID_PREFIX_INSTALLMENT)
	s.True(inst.IsLegacy())
	s.Equal(types.NotificationTimingOnDueDate, inst.NotificationTiming)

	groups, err := s.service.ListGroups(s.GetContext())
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal(inst.ID, groups[0].Representative.ID)

	_, err = s.service.CreateInstallment(s.GetContext(), &dto.CreateInstallmentRequest{
		ClientName: "Nobody",
		Amount:     decimal.NewFromInt(10),
		DueDate:    "2024-03-15",
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateInstallment(s.GetContext(), &dto.CreateInstallmentRequest{
		ClientName: "Carla",
		Amount:     decimal.NewFromInt(-10),
		DueDate:    "2024-03-15",
	})
	s.True(ierr.IsValidation(err))
}

func (s *PaymentControlServiceSuite) TestCleanupOrphans() {
	s.seed(
		newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100),
		newInstallment("d-1", "Daniel", 1, types.NewDate(2024, time.March, 5), 100),
		newInstallment("d-2", "Daniel", 2, types.NewDate(2024, time.April, 5), 100),
	)

	removed, err := s.service.CleanupOrphans(s.GetContext())
	s.Require().NoError(err)
	s.Equal(2, removed)
	s.Equal(1, s.GetStores().InstallmentRepo.Len())

	removed, err = s.service.CleanupOrphans(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, removed)
}

func (s *PaymentControlServiceSuite) TestCleanupOrphansKeepsDataWhenClientsUnavailable() {
	s.seed(newInstallment("a-1", "Ana", 1, types.NewDate(2024, time.March, 5), 100))
	s.GetStores().ClientRepo.FailWith(errors.New("timeout"))

	_, err := s.service.CleanupOrphans(s.GetContext())
	s.Require().Error(err)
	s.Equal(1, s.GetStores().InstallmentRepo.Len())
}
