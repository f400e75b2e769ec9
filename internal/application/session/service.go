package session

import (
	"context"
	"fmt"

	"github.com/fest-portal-api/internal/domain"
	jwtinfra "github.com/fest-portal-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type jwtSigner interface {
	Sign(sc jwtinfra.SessionClaims) (string, error)
}

type service struct {
	userRepo    userStore
	jwtProvider jwtSigner
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{userRepo: deps.UserRepo, jwtProvider: deps.JWTProvider}
}

// Login checks the password and issues a bearer token. It never writes.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
	}
	token, err := s.jwtProvider.Sign(jwtinfra.SessionClaims{
		UserID:        u.UserID,
		Name:          u.Name,
		Role:          u.Role,
		ProfilePicURL: u.ProfilePicURL,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u.Public()}, nil
}
