package postgres

import (
	"context"

	"github.com/practicedesk/billing/internal/domain/client"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/postgres"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{db: db, logger: logger}
}

func (r *clientRepository) List(ctx context.Context) ([]*client.ClientRecord, error) {
	var records []*client.ClientRecord
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &records,
		`SELECT id, name, created_at FROM clients WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not load client records").
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}
