package service

import (
	"context"
	"sort"
	"time"

	"github.com/practicedesk/billing/internal/api/dto"
	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentGroup is the pending installments of one client. Representative is
// the most urgent one, the rest are Additional in due order.
type PaymentGroup struct {
	ClientName     string
	Representative *installment.Installment
	Urgency        types.Urgency
	Additional     []*installment.Installment
	PendingCount   int
	PendingAmount  decimal.Decimal
	// Day is the calendar day the group was classified on
	Day time.Time
}

// PaymentControlService backs the payment control view
type PaymentControlService interface {
	// ListGroups groups the visible pending installments by client
	ListGroups(ctx context.Context) ([]*PaymentGroup, error)

	// MarkAsPaid settles one installment and returns the regrouped view
	MarkAsPaid(ctx context.Context, id string) ([]*PaymentGroup, error)

	// Delete removes one installment and returns the regrouped view
	Delete(ctx context.Context, id string) ([]*PaymentGroup, error)

	// Postpone moves the due date of an unsettled installment
	Postpone(ctx context.Context, id string, req *dto.PostponeInstallmentRequest) ([]*PaymentGroup, error)

	// CreateInstallment adds an installment that belongs to no agreement
	CreateInstallment(ctx context.Context, req *dto.CreateInstallmentRequest) (*installment.Installment, error)

	// CleanupOrphans deletes installments whose client record no longer exists
	CleanupOrphans(ctx context.Context) (int, error)
}

type paymentControlService struct {
	ServiceParams
	directory *ClientDirectory
}

func NewPaymentControlService(params ServiceParams) PaymentControlService {
	return &paymentControlService{
		ServiceParams: params,
		directory:     NewClientDirectory(params),
	}
}

func (s *paymentControlService) ListGroups(ctx context.Context) ([]*PaymentGroup, error) {
	visible, err := s.directory.Visible(ctx)
	if err != nil {
		return nil, err
	}
	return GroupPending(visible, s.today()), nil
}

// GroupPending groups the unsettled installments by client. Within a group the
// earliest due date is the representative, ties go to the lower sequence.
// Groups are ordered by the representative's due date, then by client name.
func GroupPending(items []*installment.Installment, today time.Time) []*PaymentGroup {
	pending := lo.Filter(items, func(item *installment.Installment, _ int) bool {
		return !item.Settled
	})
	byClient := lo.GroupBy(pending, func(item *installment.Installment) string {
		return item.ClientKey()
	})

	groups := make([]*PaymentGroup, 0, len(byClient))
	for _, members := range byClient {
		sort.SliceStable(members, func(i, j int) bool {
			return lessByDue(members[i], members[j])
		})

		rep := members[0]
		groups = append(groups, &PaymentGroup{
			ClientName:     rep.ClientName,
			Representative: rep,
			Urgency:        Classify(rep, today),
			Additional:     members[1:],
			PendingCount:   len(members),
			PendingAmount: lo.Reduce(members, func(sum decimal.Decimal, item *installment.Installment, _ int) decimal.Decimal {
				return sum.Add(item.Amount)
			}, decimal.Zero),
			Day: today,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Representative, groups[j].Representative
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if groups[i].ClientName != groups[j].ClientName {
			return groups[i].ClientName < groups[j].ClientName
		}
		return a.ClientKey() < b.ClientKey()
	})
	return groups
}

// NewListPaymentGroupsResponse renders groups for the API
func NewListPaymentGroupsResponse(groups []*PaymentGroup) *dto.ListPaymentGroupsResponse {
	resp := &dto.ListPaymentGroupsResponse{
		Items: make([]*dto.PaymentGroupResponse, 0, len(groups)),
	}
	for _, g := range groups {
		resp.Items = append(resp.Items, &dto.PaymentGroupResponse{
			ClientName:     g.ClientName,
			Representative: dto.NewInstallmentResponse(g.Representative, g.Urgency),
			Additional: lo.Map(g.Additional, func(item *installment.Installment, _ int) *dto.InstallmentResponse {
				return dto.NewInstallmentResponse(item, Classify(item, g.Day))
			}),
			PendingCount:  g.PendingCount,
			PendingAmount: g.PendingAmount,
		})
	}
	return resp
}

func lessByDue(a, b *installment.Installment) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return a.ID < b.ID
}

func (s *paymentControlService) MarkAsPaid(ctx context.Context, id string) ([]*PaymentGroup, error) {
	err := s.mutate(ctx, id, func(item *installment.Installment) ([]*installment.Installment, error) {
		if item.Settled {
			return nil, nil
		}
		item.Settled = true
		return []*installment.Installment{item}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("installment settled", "installment_id", id)
	return s.ListGroups(ctx)
}

func (s *paymentControlService) Delete(ctx context.Context, id string) ([]*PaymentGroup, error) {
	err := s.mutate(ctx, id, func(item *installment.Installment) ([]*installment.Installment, error) {
		return []*installment.Installment{}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("installment deleted", "installment_id", id)
	return s.ListGroups(ctx)
}

func (s *paymentControlService) Postpone(ctx context.Context, id string, req *dto.PostponeInstallmentRequest) ([]*PaymentGroup, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	newDate, _ := types.ParseDate(req.DueDate)

	err := s.mutate(ctx, id, func(item *installment.Installment) ([]*installment.Installment, error) {
		if item.Settled {
			return nil, ierr.NewError("installment is already settled").
				WithHint("A settled installment cannot be postponed").
				WithReportableDetails(map[string]any{"installment_id": id}).
				Mark(ierr.ErrInvalidOperation)
		}
		if item.DueDate.Equal(newDate) {
			return nil, nil
		}
		item.DueDate = newDate
		return []*installment.Installment{item}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("installment postponed",
		"installment_id", id,
		"due_date", types.FormatDate(newDate),
	)
	return s.ListGroups(ctx)
}

// mutate applies fn to the installment with the given id and persists the
// collection. fn returns the replacement of the installment: nil leaves the
// collection untouched, an empty slice removes it.
func (s *paymentControlService) mutate(
	ctx context.Context,
	id string,
	fn func(item *installment.Installment) ([]*installment.Installment, error),
) error {
	collectionMu.Lock()
	defer collectionMu.Unlock()

	items, err := s.InstallmentRepo.List(ctx)
	if err != nil {
		return err
	}

	_, idx, found := lo.FindIndexOf(items, func(item *installment.Installment) bool {
		return item.ID == id
	})
	if !found {
		return ierr.NewError("installment not found").
			WithHintf("Installment %s was not found", id).
			WithReportableDetails(map[string]any{"installment_id": id}).
			Mark(ierr.ErrNotFound)
	}

	replacement, err := fn(items[idx].Clone())
	if err != nil {
		return err
	}
	if replacement == nil {
		return nil
	}
	for _, item := range replacement {
		item.UpdatedAt = s.now()
	}

	next := make([]*installment.Installment, 0, len(items)+len(replacement)-1)
	next = append(next, items[:idx]...)
	next = append(next, replacement...)
	next = append(next, items[idx+1:]...)
	if err := s.InstallmentRepo.ReplaceAll(ctx, next); err != nil {
		return err
	}

	s.publish(ctx, id)
	return nil
}

func (s *paymentControlService) CreateInstallment(ctx context.Context, req *dto.CreateInstallmentRequest) (*installment.Installment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.directory.Names(ctx).Has(req.ClientName) {
		return nil, ierr.NewError("client not found").
			WithHintf("No client named %q exists", req.ClientName).
			Mark(ierr.ErrValidation)
	}

	inst := req.ToInstallment(s.now())

	collectionMu.Lock()
	items, err := s.InstallmentRepo.List(ctx)
	if err == nil {
		err = s.InstallmentRepo.ReplaceAll(ctx, append(items, inst))
	}
	collectionMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("installment created",
		"installment_id", inst.ID,
		"client_name", inst.ClientName,
		"due_date", types.FormatDate(inst.DueDate),
	)
	s.publish(ctx, inst.ID)
	return inst, nil
}

func (s *paymentControlService) CleanupOrphans(ctx context.Context) (int, error) {
	// A failed client list must not be mistaken for an empty one here
	records, err := s.ClientRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	names := client.NewNameSet(records)

	collectionMu.Lock()
	defer collectionMu.Unlock()

	items, err := s.InstallmentRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	kept, orphans := lo.FilterReject(items, func(item *installment.Installment, _ int) bool {
		return names.Has(item.ClientName)
	})
	if len(orphans) == 0 {
		return 0, nil
	}

	if err := s.InstallmentRepo.ReplaceAll(ctx, kept); err != nil {
		return 0, err
	}

	s.Logger.Infow("removed orphaned installments", "count", len(orphans))
	s.publish(ctx, "")
	return len(orphans), nil
}

func (s *paymentControlService) publish(ctx context.Context, affectedID string) {
	if s.SignalBus == nil {
		return
	}
	if err := s.SignalBus.Publish(ctx, signal.New(types.SignalInstallmentsChanged, affectedID)); err != nil {
		s.Logger.Warnw("failed to publish change signal",
			"signal_type", types.SignalInstallmentsChanged,
			"affected_id", affectedID,
			"error", err,
		)
	}
}
