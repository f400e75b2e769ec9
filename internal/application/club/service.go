package club

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
	List(ctx context.Context) ([]domain.Club, error)
	Get(ctx context.Context, clubID string) (*domain.Club, error)
	// Create registers a club for coordinatorID. logo is optional.
	Create(ctx context.Context, coordinatorID string, in domain.ClubInput, logo *file.UploadInput) (*domain.Club, error)
	Update(ctx context.Context, actor domain.Actor, clubID string, in domain.ClubUpdate, logo *file.UploadInput) (*domain.Club, error)
}

type clubStore interface {
	Create(ctx context.Context, c *domain.Club) error
	Get(ctx context.Context, clubID string) (*domain.Club, error)
	ExistsForCoordinator(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]domain.Club, error)
	Update(ctx context.Context, c *domain.Club) error
}

type service struct {
	repo  clubStore
	media file.Service
	clock func() time.Time
}

type ServiceDeps struct {
	ClubRepo clubStore
	Media    file.Service
	Clock    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: deps.ClubRepo, media: deps.Media, clock: clock}
}

func (s *service) List(ctx context.Context) ([]domain.Club, error) {
	clubs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if clubs == nil {
		clubs = []domain.Club{}
	}
	return clubs, nil
}

func (s *service) Get(ctx context.Context, clubID string) (*domain.Club, error) {
	return s.repo.Get(ctx, clubID)
}

func (s *service) Create(ctx context.Context, coordinatorID string, in domain.ClubInput, logo *file.UploadInput) (*domain.Club, error) {
	owns, err := s.repo.ExistsForCoordinator(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, fmt.Errorf("coordinator %s: %w", coordinatorID, domain.ErrAlreadyOwnsClub)
	}

	now := s.clock().UTC()
	c := &domain.Club{
		ClubID:        id.New(),
		Name:          in.Name,
		Description:   in.Description,
		CoordinatorID: coordinatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if logo != nil {
		stored, err := s.media.Put(ctx, s3infra.FolderClubLogos, *logo)
		if err != nil {
			return nil, err
		}
		c.LogoURL, c.LogoKey = &stored.URL, &stored.Key
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.media.Discard(ctx, c.LogoKey)
		return nil, err
	}
	return c, nil
}

// Update applies the provided fields. A new logo replaces the old object.
func (s *service) Update(ctx context.Context, actor domain.Actor, clubID string, in domain.ClubUpdate, logo *file.UploadInput) (*domain.Club, error) {
	c, err := s.repo.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(c.CoordinatorID) {
		return nil, fmt.Errorf("club %s not owned by %s: %w", clubID, actor.UserID, domain.ErrForbidden)
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	oldKey := c.LogoKey
	var newKey *string
	if logo != nil {
		stored, err := s.media.Put(ctx, s3infra.FolderClubLogos, *logo)
		if err != nil {
			return nil, err
		}
		c.LogoURL, c.LogoKey = &stored.URL, &stored.Key
		newKey = &stored.Key
	}
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		s.media.Discard(ctx, newKey)
		return nil, err
	}
	if newKey != nil {
		s.media.Discard(ctx, oldKey)
	}
	return c, nil
}
