package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/domain"
	s3infra "github.com/fest-portal-api/internal/infrastructure/s3"
	"github.com/fest-portal-api/internal/pkg/id"
)

type Service interface {
	List(ctx context.Context, clubID string) ([]domain.Photo, error)
	Upload(ctx context.Context, actor domain.Actor, clubID, caption string, in file.UploadInput) (*domain.Photo, error)
	Delete(ctx context.Context, actor domain.Actor, photoID string) error
}

type photoStore interface {
	Create(ctx context.Context, p *domain.Photo) error
	Get(ctx context.Context, photoID string) (*domain.Photo, error)
	ListByClub(ctx context.Context, clubID string) ([]domain.Photo, error)
	Delete(ctx context.Context, photoID string) error
}

type clubStore interface {
	Get(ctx context.Context, clubID string) (*domain.Club, error)
}

type service struct {
	photos photoStore
	clubs  clubStore
	media  file.Service
	clock  func() time.Time
}

type ServiceDeps struct {
	PhotoRepo photoStore
	ClubRepo  clubStore
	Media     file.Service
	Clock     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{photos: deps.PhotoRepo, clubs: deps.ClubRepo, media: deps.Media, clock: clock}
}

// List returns the gallery of clubID, newest first.
func (s *service) List(ctx context.Context, clubID string) ([]domain.Photo, error) {
	photos, err := s.photos.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return photos, nil
}

func (s *service) Upload(ctx context.Context, actor domain.Actor, clubID, caption string, in file.UploadInput) (*domain.Photo, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(c.CoordinatorID) {
		return nil, fmt.Errorf("club %s not owned by %s: %w", clubID, actor.UserID, domain.ErrForbidden)
	}
	stored, err := s.media.Put(ctx, s3infra.FolderClubPhotos, in)
	if err != nil {
		return nil, err
	}
	if caption == "" {
		caption = c.Name + " Photo"
	}
	p := &domain.Photo{
		PhotoID:    id.New(),
		ClubID:     clubID,
		URL:        stored.URL,
		Key:        stored.Key,
		Caption:    caption,
		UploadedBy: actor.UserID,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.photos.Create(ctx, p); err != nil {
		s.media.Discard(ctx, &stored.Key)
		return nil, err
	}
	return p, nil
}

// Delete removes the stored object, then the row.
func (s *service) Delete(ctx context.Context, actor domain.Actor, photoID string) error {
	p, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return err
	}
	c, err := s.clubs.Get(ctx, p.ClubID)
	if err != nil {
		return err
	}
	if !actor.Owns(c.CoordinatorID) {
		return fmt.Errorf("photo %s not owned by %s: %w", photoID, actor.UserID, domain.ErrForbidden)
	}
	s.media.Discard(ctx, &p.Key)
	return s.photos.Delete(ctx, photoID)
}
