package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/practicedesk/billing/internal/domain/notification"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/postgres"
	"github.com/practicedesk/billing/internal/types"
)

type notificationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewNotificationRepository returns the marker store shared by every
// dispatcher connected to the same database
func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Claim(ctx context.Context, key notification.DedupKey) (bool, error) {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`INSERT INTO notification_keys (installment_id, day) VALUES ($1, $2)
		ON CONFLICT (installment_id, day) DO NOTHING`,
		key.InstallmentID, types.FormatDate(key.Day),
	)
	if err != nil {
		return false, ierr.WithError(err).
			WithHintf("Could not claim notification %s", key).
			Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return n == 1, nil
}

func (r *notificationRepository) LastNotifiedDay(ctx context.Context) (time.Time, bool, error) {
	var day time.Time
	err := r.db.GetQuerier(ctx).GetContext(ctx, &day,
		`SELECT last_notified_day FROM notification_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, ierr.WithError(err).
			WithHint("Could not read the notification day").
			Mark(ierr.ErrDatabase)
	}
	return types.NewDate(day.Date()), true, nil
}

func (r *notificationRepository) ResetDay(ctx context.Context, day time.Time) error {
	formatted := types.FormatDate(day)
	r.logger.Debugw("resetting notification day", "day", formatted)

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)
		if _, err := q.ExecContext(ctx,
			`INSERT INTO notification_state (id, last_notified_day, updated_at) VALUES (1, $1, now())
			ON CONFLICT (id) DO UPDATE SET last_notified_day = EXCLUDED.last_notified_day, updated_at = now()`,
			formatted,
		); err != nil {
			return ierr.WithError(err).
				WithHint("Could not store the notification day").
				Mark(ierr.ErrDatabase)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM notification_keys WHERE day < $1`, formatted); err != nil {
			return ierr.WithError(err).
				WithHint("Could not drop old notification keys").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
}
