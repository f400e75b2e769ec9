package postgres

import (
	"context"
	"fmt"

	"github.com/fest-portal-api/internal/domain"
)

type RegistrationRepo struct {
	db DBTX
}

func NewRegistrationRepo(db DBTX) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// Create inserts reg; a second registration for the same event and user is
// domain.ErrConflict.
func (r *RegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (id, event_id, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		reg.RegistrationID, reg.EventID, reg.UserID, reg.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return fmt.Errorf("already registered for event: %w", domain.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RegistrationRepo) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListAttendees returns registrants of eventID in registration order.
func (r *RegistrationRepo) ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT u.name, u.email, u.mobile
		FROM registrations r JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC, r.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	attendees := []domain.Attendee{}
	for rows.Next() {
		var a domain.Attendee
		if err := rows.Scan(&a.Name, &a.Email, &a.Mobile); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return attendees, nil
}

func (r *RegistrationRepo) ListEventIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM registrations WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
