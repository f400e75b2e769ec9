package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fest-portal-api/internal/domain"
)

const eventSelect = `SELECT e.id, e.title, e.description, e.venue, e.event_date, e.club_name,
	e.coordinator_id, e.reminder_sent_at, e.created_at, e.updated_at, u.name, u.email
	FROM events e JOIN users u ON u.id = e.coordinator_id`

type EventRepo struct {
	db DBTX
}

func NewEventRepo(db DBTX) *EventRepo {
	return &EventRepo{db: db}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{Coordinator: &domain.Contact{}}
	err := row.Scan(&e.EventID, &e.Title, &e.Description, &e.Venue, &e.EventDate, &e.ClubName,
		&e.CoordinatorID, &e.ReminderSentAt, &e.CreatedAt, &e.UpdatedAt, &e.Coordinator.Name, &e.Coordinator.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *EventRepo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return events, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (id, title, description, venue, event_date, club_name, coordinator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query, e.EventID, e.Title, e.Description, e.Venue, e.EventDate,
		e.ClubName, e.CoordinatorID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, eventID))
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+` ORDER BY e.event_date ASC`)
}

func (r *EventRepo) ListByCoordinator(ctx context.Context, coordinatorID string) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.coordinator_id = $1 ORDER BY e.event_date ASC`, coordinatorID)
}

// Update replaces the editable fields. Moving the event date re-arms the reminder.
func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	query := `UPDATE events SET title = $2, description = $3, venue = $4, club_name = $6, updated_at = $7,
		reminder_sent_at = CASE WHEN event_date <> $5 THEN NULL ELSE reminder_sent_at END,
		event_date = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, e.EventID, e.Title, e.Description, e.Venue, e.EventDate,
		e.ClubName, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

// ListDueForReminder returns unreminded events starting within [from, to].
func (r *EventRepo) ListDueForReminder(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+`
		WHERE e.event_date BETWEEN $1 AND $2 AND e.reminder_sent_at IS NULL
		ORDER BY e.event_date ASC`, from, to)
}

// ClaimReminder marks the event reminded. It returns false when another
// run already claimed it.
func (r *EventRepo) ClaimReminder(ctx context.Context, eventID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET reminder_sent_at = $2 WHERE id = $1 AND reminder_sent_at IS NULL`, eventID, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
