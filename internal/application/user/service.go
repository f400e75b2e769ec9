package user

import (
	"context"
	"fmt"

	"github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/domain"
	s3infra "github.com/fest-portal-api/internal/infrastructure/s3"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type Service interface {
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	DeleteMe(ctx context.Context, userID string) error
	UploadProfilePic(ctx context.Context, userID string, in file.UploadInput) (*domain.User, error)
	RemoveProfilePic(ctx context.Context, userID string) (*domain.User, error)
	MyRegistrations(ctx context.Context, userID string) ([]string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetProfilePic(ctx context.Context, userID string, url, key *string) error
	Delete(ctx context.Context, userID string) ([]string, error)
}

type registrationStore interface {
	ListEventIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type service struct {
	repo          userStore
	registrations registrationStore
	media         file.Service
}

type ServiceDeps struct {
	UserRepo         userStore
	RegistrationRepo registrationStore
	Media            file.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.UserRepo,
		registrations: deps.RegistrationRepo,
		media:         deps.Media,
	}
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("old and new passwords are required: %w", domain.ErrBadRequest)
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("new password must be at least %d characters: %w", minPasswordLen, domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("old password mismatch: %w", domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// DeleteMe removes the account. Registrations, clubs and events owned by the
// user go with it through foreign-key cascades, and the media of their clubs
// is removed from storage afterwards.
func (s *service) DeleteMe(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	orphaned, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	s.media.Discard(ctx, u.ProfilePicKey)
	for i := range orphaned {
		s.media.Discard(ctx, &orphaned[i])
	}
	return nil
}

func (s *service) UploadProfilePic(ctx context.Context, userID string, in file.UploadInput) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, err := s.media.Put(ctx, s3infra.FolderProfilePics, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetProfilePic(ctx, userID, &stored.URL, &stored.Key); err != nil {
		s.media.Discard(ctx, &stored.Key)
		return nil, err
	}
	s.media.Discard(ctx, u.ProfilePicKey)
	u.ProfilePicURL = &stored.URL
	u.ProfilePicKey = &stored.Key
	return u, nil
}

func (s *service) RemoveProfilePic(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetProfilePic(ctx, userID, nil, nil); err != nil {
		return nil, err
	}
	s.media.Discard(ctx, u.ProfilePicKey)
	u.ProfilePicURL = nil
	u.ProfilePicKey = nil
	return u, nil
}

func (s *service) MyRegistrations(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.registrations.ListEventIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
