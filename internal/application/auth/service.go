package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/pkg/id"
	pkgtoken "github.com/fest-portal-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=120"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type Service interface {
	SendVerificationOTP(ctx context.Context, email, name string) error
	VerifyEmailOTP(ctx context.Context, email, code string) (*domain.PendingVerification, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type pendingStore interface {
	Upsert(ctx context.Context, p *domain.PendingVerification) error
	Get(ctx context.Context, email string) (*domain.PendingVerification, error)
	MarkVerified(ctx context.Context, email, code string) error
	RecordFailedAttempt(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MobileExists(ctx context.Context, mobile string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	ResetPassword(ctx context.Context, userID, tokenHash, passwordHash string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	pending       pendingStore
	users         userStore
	mailer        mailer
	clock         func() time.Time
	appName       string
	frontendURL   string
	otpTTL        time.Duration
	resetTTL      time.Duration
	requireVerify bool
}

type ServiceDeps struct {
	PendingRepo           pendingStore
	UserRepo              userStore
	Mailer                mailer
	Clock                 func() time.Time
	AppName               string
	FrontendURL           string
	OTPTTL                time.Duration
	ResetTokenTTL         time.Duration
	RequireVerifiedSignup bool
}

func NewService(deps ServiceDeps) Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	otpTTL := deps.OTPTTL
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	resetTTL := deps.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &service{
		pending:       deps.PendingRepo,
		users:         deps.UserRepo,
		mailer:        deps.Mailer,
		clock:         clock,
		appName:       deps.AppName,
		frontendURL:   deps.FrontendURL,
		otpTTL:        otpTTL,
		resetTTL:      resetTTL,
		requireVerify: deps.RequireVerifiedSignup,
	}
}

func (s *service) SendVerificationOTP(ctx context.Context, email, name string) error {
	email = domain.NormalizeEmail(email)
	if err := s.ensureNotRegistered(ctx, email); err != nil {
		return err
	}

	code, err := pkgtoken.NewOTP()
	if err != nil {
		return err
	}
	p := &domain.PendingVerification{
		Email:     email,
		Name:      name,
		Code:      code,
		ExpiresAt: s.clock().Add(s.otpTTL).Unix(),
	}
	if err := s.pending.Upsert(ctx, p); err != nil {
		return err
	}

	subject := s.appName + " Email Verification"
	body := fmt.Sprintf("Your %s verification code is: %s. This code will expire in %s.",
		s.appName, code, minutes(s.otpTTL))
	if err := s.mailer.SendEmail(email, subject, body); err != nil {
		slog.Error("failed to send verification code", "email", email, "err", err)
		return fmt.Errorf("send verification code: %w", domain.ErrUpstreamSend)
	}
	return nil
}

func (s *service) VerifyEmailOTP(ctx context.Context, email, code string) (*domain.PendingVerification, error) {
	email = domain.NormalizeEmail(email)
	p, err := s.pending.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if p.Expired(s.clock()) {
		s.discardPending(ctx, email)
		return nil, fmt.Errorf("verification code expired: %w", domain.ErrExpired)
	}
	if p.Attempts >= domain.MaxOTPAttempts {
		s.discardPending(ctx, email)
		return nil, fmt.Errorf("verification code retired: %w", domain.ErrTooManyAttempts)
	}
	if p.Code != code {
		n, err := s.pending.RecordFailedAttempt(ctx, email)
		if err != nil {
			return nil, err
		}
		if n >= domain.MaxOTPAttempts {
			s.discardPending(ctx, email)
			return nil, fmt.Errorf("verification code retired: %w", domain.ErrTooManyAttempts)
		}
		return nil, fmt.Errorf("verification code mismatch: %w", domain.ErrMismatch)
	}
	if err := s.pending.MarkVerified(ctx, email, code); err != nil {
		return nil, err
	}
	p.Verified = true
	return p, nil
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := s.ensureNotRegistered(ctx, email); err != nil {
		return nil, err
	}
	var mobile *string
	if req.Mobile != "" {
		taken, err := s.users.MobileExists(ctx, req.Mobile)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("mobile %s: %w", req.Mobile, domain.ErrMobileTaken)
		}
		mobile = &req.Mobile
	}
	if s.requireVerify {
		p, err := s.pending.Get(ctx, email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if p == nil || !p.Verified {
			return nil, fmt.Errorf("email %s: %w", email, domain.ErrNotVerified)
		}
		if p.Expired(s.clock()) {
			s.discardPending(ctx, email)
			return nil, fmt.Errorf("verification for %s expired: %w", email, domain.ErrNotVerified)
		}
	}

	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Mobile:       mobile,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.discardPending(ctx, email)
	return u, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	raw, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.UserID, pkgtoken.Hash(raw), s.clock().Add(s.resetTTL)); err != nil {
		return err
	}

	resetURL := s.frontendURL + "/reset-password/" + raw
	body := fmt.Sprintf("You are receiving this email because you (or someone else) requested a password reset for your account.\n"+
		"Please click on the following link, or paste it into your browser to complete the process:\n\n%s\n\n"+
		"This link will expire in %s.\nIf you did not request this, please ignore this email.\n",
		resetURL, minutes(s.resetTTL))
	if err := s.mailer.SendEmail(u.Email, "Password Reset Request", body); err != nil {
		slog.Error("failed to send password reset email", "user_id", u.UserID, "err", err)
		if cerr := s.users.ClearResetToken(ctx, u.UserID); cerr != nil {
			slog.Warn("failed to clear reset token", "user_id", u.UserID, "err", cerr)
		}
		return fmt.Errorf("send reset email: %w", domain.ErrUpstreamSend)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	tokenHash := pkgtoken.Hash(rawToken)
	u, err := s.users.GetByResetToken(ctx, tokenHash, s.clock())
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, u.UserID, tokenHash, string(hash))
}

func (s *service) ensureNotRegistered(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("email %s: %w", email, domain.ErrAlreadyRegistered)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *service) discardPending(ctx context.Context, email string) {
	if err := s.pending.Delete(ctx, email); err != nil {
		slog.Warn("failed to delete pending verification", "email", email, "err", err)
	}
}

func minutes(d time.Duration) string {
	m := int(d.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
