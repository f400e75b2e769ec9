package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fest-portal-api/internal/domain"
)

type ClubRepo struct {
	db DBTX
}

func NewClubRepo(db DBTX) *ClubRepo {
	return &ClubRepo{db: db}
}

func (r *ClubRepo) Create(ctx context.Context, c *domain.Club) error {
	query := `INSERT INTO clubs (id, name, description, logo_url, logo_key, coordinator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, c.ClubID, c.Name, c.Description, c.LogoURL, c.LogoKey,
		c.CoordinatorID, c.CreatedAt, c.UpdatedAt)
	return clubWriteErr(err)
}

// Get returns the club with its coordinator's contact details.
func (r *ClubRepo) Get(ctx context.Context, clubID string) (*domain.Club, error) {
	query := `SELECT c.id, c.name, c.description, c.logo_url, c.logo_key, c.coordinator_id,
		c.created_at, c.updated_at, u.name, u.email
		FROM clubs c JOIN users u ON u.id = c.coordinator_id
		WHERE c.id = $1`

	c := &domain.Club{Coordinator: &domain.Contact{}}
	err := r.db.QueryRowContext(ctx, query, clubID).Scan(&c.ClubID, &c.Name, &c.Description, &c.LogoURL,
		&c.LogoKey, &c.CoordinatorID, &c.CreatedAt, &c.UpdatedAt, &c.Coordinator.Name, &c.Coordinator.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("club not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *ClubRepo) ExistsForCoordinator(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clubs WHERE coordinator_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// List returns the summary fields of every club, ordered by name.
func (r *ClubRepo) List(ctx context.Context) ([]domain.Club, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, logo_url, description FROM clubs ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	clubs := []domain.Club{}
	for rows.Next() {
		var c domain.Club
		if err := rows.Scan(&c.ClubID, &c.Name, &c.LogoURL, &c.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return clubs, nil
}

func (r *ClubRepo) Update(ctx context.Context, c *domain.Club) error {
	query := `UPDATE clubs SET name = $2, description = $3, logo_url = $4, logo_key = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, c.ClubID, c.Name, c.Description, c.LogoURL, c.LogoKey, c.UpdatedAt)
	if err != nil {
		return clubWriteErr(err)
	}
	return expectAffected(res)
}

func clubWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if c, ok := uniqueConstraint(err); ok {
		if c == "clubs_coordinator_id_key" {
			return fmt.Errorf("coordinator: %w", domain.ErrAlreadyOwnsClub)
		}
		return fmt.Errorf("club name taken: %w", domain.ErrConflict)
	}
	return fmt.Errorf("db error: %w", err)
}
