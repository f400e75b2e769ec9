package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fest-portal-api/internal/domain"
)

type PhotoRepo struct {
	db DBTX
}

func NewPhotoRepo(db DBTX) *PhotoRepo {
	return &PhotoRepo{db: db}
}

func (r *PhotoRepo) Create(ctx context.Context, p *domain.Photo) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO club_photos (id, club_id, url, storage_key, caption, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.PhotoID, p.ClubID, p.URL, p.Key, p.Caption, p.UploadedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PhotoRepo) Get(ctx context.Context, photoID string) (*domain.Photo, error) {
	p := &domain.Photo{}
	err := r.db.QueryRowContext(ctx, `SELECT id, club_id, url, storage_key, caption, COALESCE(uploaded_by, ''), created_at
		FROM club_photos WHERE id = $1`, photoID).
		Scan(&p.PhotoID, &p.ClubID, &p.URL, &p.Key, &p.Caption, &p.UploadedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// ListByClub returns the club's photos, newest first.
func (r *PhotoRepo) ListByClub(ctx context.Context, clubID string) ([]domain.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, club_id, url, storage_key, caption, COALESCE(uploaded_by, ''), created_at
		FROM club_photos WHERE club_id = $1
		ORDER BY created_at DESC, id DESC`, clubID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.PhotoID, &p.ClubID, &p.URL, &p.Key, &p.Caption, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photos, nil
}

func (r *PhotoRepo) Delete(ctx context.Context, photoID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM club_photos WHERE id = $1`, photoID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}
