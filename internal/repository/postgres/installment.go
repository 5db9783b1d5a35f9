package postgres

import (
	"context"
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/postgres"
	"github.com/practicedesk/billing/internal/types"
)

type installmentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return &installmentRepository{db: db, logger: logger}
}

func (r *installmentRepository) List(ctx context.Context) ([]*installment.Installment, error) {
	query := `
		SELECT id, kind, client_name, sequence, total_count, amount, due_date, settled,
			parent_id, notification_timing, created_at, updated_at
		FROM installments
		ORDER BY due_date, id`

	var items []*installment.Installment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not load installments").
			Mark(ierr.ErrDatabase)
	}

	// DATE columns come back as midnight in the session zone
	for _, item := range items {
		item.DueDate = types.NewDate(item.DueDate.Date())
	}
	return items, nil
}

func (r *installmentRepository) ReplaceAll(ctx context.Context, items []*installment.Installment) error {
	r.logger.Debugw("replacing installments", "count", len(items))

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)
		if _, err := q.ExecContext(ctx, `DELETE FROM installments`); err != nil {
			return ierr.WithError(err).
				WithHint("Could not clear installments").
				Mark(ierr.ErrDatabase)
		}
		if len(items) == 0 {
			return nil
		}

		now := time.Now().UTC()
		rows := make([]installmentRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, newInstallmentRow(item, now))
		}

		query := `
			INSERT INTO installments (
				id, kind, client_name, sequence, total_count, amount, due_date, settled,
				parent_id, notification_timing, created_at, updated_at
			) VALUES (
				:id, :kind, :client_name, :sequence, :total_count, :amount, :due_date, :settled,
				:parent_id, :notification_timing, :created_at, :updated_at
			)`
		if _, err := q.NamedExecContext(ctx, query, rows); err != nil {
			return ierr.WithError(err).
				WithHint("Could not store installments").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

// installmentRow is the insert shape. The due date is bound as text so the
// server never shifts it through a time zone.
type installmentRow struct {
	*installment.Installment
	DueDate string `db:"due_date"`
}

func newInstallmentRow(item *installment.Installment, now time.Time) installmentRow {
	row := installmentRow{Installment: item.Clone(), DueDate: types.FormatDate(item.DueDate)}
	if row.Installment.CreatedAt.IsZero() {
		row.Installment.CreatedAt = now
	}
	row.Installment.UpdatedAt = now
	return row
}
