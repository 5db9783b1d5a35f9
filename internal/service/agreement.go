package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/practicedesk/billing/internal/api/dto"
	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
)

// collectionMu serializes read-modify-write cycles on the installment
// collection within the process
var collectionMu sync.Mutex

// AgreementService keeps the installments of an agreement consistent with its terms
type AgreementService interface {
	// SaveAgreement replaces the installments of the agreement's parent with a
	// freshly generated plan. Calling it again with the same terms is a no-op.
	SaveAgreement(ctx context.Context, a *installment.Agreement) (*ReconcileResult, error)

	// DeleteAgreement removes every installment owned by the referenced agreement
	DeleteAgreement(ctx context.Context, ref installment.AgreementRef) (*ReconcileResult, error)
}

// ReconcileResult describes the outcome of a reconciliation
type ReconcileResult struct {
	// Installments is the new installment set of the parent, ordered by sequence
	Installments []*installment.Installment
	Removed      int
	Warnings     []string
	// Day is the calendar day the reconciliation ran on
	Day time.Time
}

// NewAgreementResponse renders a reconciliation for the API
func NewAgreementResponse(parentID string, result *ReconcileResult) *dto.AgreementResponse {
	return &dto.AgreementResponse{
		ParentID: parentID,
		Installments: lo.Map(result.Installments, func(item *installment.Installment, _ int) *dto.InstallmentResponse {
			return dto.NewInstallmentResponse(item, Classify(item, result.Day))
		}),
		Removed:  result.Removed,
		Warnings: result.Warnings,
	}
}

type agreementService struct {
	ServiceParams
}

func NewAgreementService(params ServiceParams) AgreementService {
	return &agreementService{ServiceParams: params}
}

func (s *agreementService) SaveAgreement(ctx context.Context, a *installment.Agreement) (*ReconcileResult, error) {
	if a == nil {
		return nil, ierr.NewError("agreement is required").
			WithHint("Provide the agreement terms").
			Mark(ierr.ErrInvalidAgreement)
	}

	// Validate up front so that an invalid agreement removes nothing
	var plan *PlanResult
	if a.Active {
		var err error
		if plan, err = GeneratePlan(a); err != nil {
			return nil, err
		}
	} else if err := validateRef(a.Ref()); err != nil {
		return nil, err
	}

	result, err := s.reconcile(ctx, a.Ref(), plan, a.NotificationTiming != "")
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("agreement reconciled",
		"parent_id", a.ParentID,
		"client_name", a.ClientName,
		"kind", a.Kind,
		"active", a.Active,
		"removed", result.Removed,
		"generated", len(result.Installments),
	)
	for _, w := range result.Warnings {
		s.Logger.Warnw("due rule fallback", "parent_id", a.ParentID, "warning", w)
	}

	s.publish(ctx, types.SignalAgreementSaved, a.ParentID)
	return result, nil
}

func (s *agreementService) DeleteAgreement(ctx context.Context, ref installment.AgreementRef) (*ReconcileResult, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	result, err := s.reconcile(ctx, ref, nil, false)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("agreement deleted",
		"parent_id", ref.ParentID,
		"client_name", ref.ClientName,
		"removed", result.Removed,
	)

	s.publish(ctx, types.SignalAgreementDeleted, ref.ParentID)
	return result, nil
}

// reconcile removes every installment owned by ref and, when a plan is given,
// adds the plan in their place. Removal always happens, even when the terms
// did not change.
func (s *agreementService) reconcile(
	ctx context.Context,
	ref installment.AgreementRef,
	plan *PlanResult,
	explicitTiming bool,
) (*ReconcileResult, error) {
	collectionMu.Lock()
	defer collectionMu.Unlock()

	items, err := s.InstallmentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	removed, kept := lo.FilterReject(items, func(item *installment.Installment, _ int) bool {
		return ref.Owns(item)
	})

	result := &ReconcileResult{Removed: len(removed), Day: s.today()}
	if plan != nil {
		result.Installments = carryOverState(plan.Installments, removed, ref, explicitTiming)
		result.Warnings = plan.Warnings
	}

	next := append(kept, result.Installments...)
	if err := s.InstallmentRepo.ReplaceAll(ctx, next); err != nil {
		return nil, err
	}
	return result, nil
}

// carryOverState applies what the previous installments of the parent knew to
// the regenerated ones. An installment stays settled when the previous one at
// the same sequence was settled on the same due date. CreatedAt is kept and
// a per-installment timing override survives unless the agreement sets one.
func carryOverState(
	generated, removed []*installment.Installment,
	ref installment.AgreementRef,
	explicitTiming bool,
) []*installment.Installment {
	previous := make(map[int]*installment.Installment, len(removed))
	for _, item := range removed {
		if !sameParent(item, ref) {
			continue
		}
		if prev, ok := previous[item.Sequence]; ok && prev.Settled {
			continue
		}
		previous[item.Sequence] = item
	}

	for _, inst := range generated {
		prev, ok := previous[inst.Sequence]
		if !ok {
			continue
		}
		if prev.Settled && prev.DueDate.Equal(inst.DueDate) {
			inst.Settled = true
		}
		if !prev.CreatedAt.IsZero() {
			inst.CreatedAt = prev.CreatedAt
		}
		if !explicitTiming && prev.NotificationTiming != "" {
			inst.NotificationTiming = prev.NotificationTiming
		}
	}
	return generated
}

// sameParent reports whether a removed installment was generated for ref,
// either by parent id or by the legacy id prefix. Installments matched only
// by client name do not carry state over.
func sameParent(item *installment.Installment, ref installment.AgreementRef) bool {
	if !item.IsLegacy() {
		return item.ParentID == ref.ParentID
	}
	return ref.ParentID != "" && strings.HasPrefix(item.ID, ref.ParentID+"-")
}

func validateRef(ref installment.AgreementRef) error {
	if strings.TrimSpace(ref.ParentID) == "" {
		return ierr.NewError("parent_id is required").
			WithHint("The agreement must reference its parent record").
			Mark(ierr.ErrInvalidAgreement)
	}
	return nil
}

func (s *agreementService) publish(ctx context.Context, signalType types.SignalType, affectedID string) {
	if s.SignalBus == nil {
		return
	}
	if err := s.SignalBus.Publish(ctx, signal.New(signalType, affectedID)); err != nil {
		s.Logger.Warnw("failed to publish change signal",
			"signal_type", signalType,
			"affected_id", affectedID,
			"error", err,
		)
	}
}
