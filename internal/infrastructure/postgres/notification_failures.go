package postgres

import (
	"context"
	"fmt"

	"github.com/fest-portal-api/internal/domain"
)

type NotificationFailureRepo struct {
	db DBTX
}

func NewNotificationFailureRepo(db DBTX) *NotificationFailureRepo {
	return &NotificationFailureRepo{db: db}
}

func (r *NotificationFailureRepo) Create(ctx context.Context, f *domain.NotificationFailure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_failures (id, recipient, subject, error, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.FailureID, f.Recipient, f.Subject, f.Error, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
