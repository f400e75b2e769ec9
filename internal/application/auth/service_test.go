package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fest-portal-api/internal/domain"
	pkgtoken "github.com/fest-portal-api/internal/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockPendingStore struct{ mock.Mock }

func (m *mockPendingStore) Upsert(ctx context.Context, p *domain.PendingVerification) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPendingStore) Get(ctx context.Context, email string) (*domain.PendingVerification, error) {
	args := m.Called(ctx, email)
	if p, _ := args.Get(0).(*domain.PendingVerification); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPendingStore) MarkVerified(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}
func (m *mockPendingStore) RecordFailedAttempt(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}
func (m *mockPendingStore) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) MobileExists(ctx context.Context, mobile string) (bool, error) {
	args := m.Called(ctx, mobile)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}
func (m *mockUserStore) ClearResetToken(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockUserStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) ResetPassword(ctx context.Context, userID, tokenHash, passwordHash string) error {
	return m.Called(ctx, userID, tokenHash, passwordHash).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- builder ---

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(ps *mockPendingStore, us *mockUserStore, ml *mockMailer, requireVerify bool) Service {
	return NewService(ServiceDeps{
		PendingRepo:           ps,
		UserRepo:              us,
		Mailer:                ml,
		Clock:                 func() time.Time { return fixedNow },
		AppName:               "Campus Fest",
		FrontendURL:           "https://fest.example.com",
		OTPTTL:                5 * time.Minute,
		ResetTokenTTL:         10 * time.Minute,
		RequireVerifiedSignup: requireVerify,
	})
}

// --- SendVerificationOTP ---

func TestSendVerificationOTP_AlreadyRegistered(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	err := svc.SendVerificationOTP(context.Background(), "Asha@Campus.edu", "Asha")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
}

func TestSendVerificationOTP_StoresCodeAndMails(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)

	var stored *domain.PendingVerification
	ps := &mockPendingStore{}
	ps.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.PendingVerification")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.PendingVerification) }).
		Return(nil)

	var body string
	ml := &mockMailer{}
	ml.On("SendEmail", "asha@campus.edu", "Campus Fest Email Verification", mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return(nil)

	svc := newService(ps, us, ml, true)
	require.NoError(t, svc.SendVerificationOTP(context.Background(), "asha@campus.edu", "Asha"))

	require.NotNil(t, stored)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), stored.Code)
	assert.Equal(t, "Asha", stored.Name)
	assert.Equal(t, fixedNow.Add(5*time.Minute).Unix(), stored.ExpiresAt)
	assert.False(t, stored.Verified)
	assert.Equal(t, "Your Campus Fest verification code is: "+stored.Code+". This code will expire in 5 minutes.", body)
}

func TestSendVerificationOTP_MailFailureKeepsPending(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	ps := &mockPendingStore{}
	ps.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(ps, us, ml, true)
	err := svc.SendVerificationOTP(context.Background(), "asha@campus.edu", "Asha")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamSend))
	ps.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// --- VerifyEmailOTP ---

func TestVerifyEmailOTP_NoRecord(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "123456")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyEmailOTP_ExpiredDeletesRecord(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Email: "asha@campus.edu", Code: "123456", ExpiresAt: fixedNow.Add(-time.Second).Unix(),
	}, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "123456")

	assert.True(t, errors.Is(err, domain.ErrExpired))
	ps.AssertCalled(t, "Delete", mock.Anything, "asha@campus.edu")
}

func TestVerifyEmailOTP_ExpiryCheckedBeforeCode(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Code: "123456", ExpiresAt: fixedNow.Add(-time.Minute).Unix(),
	}, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "000000")

	assert.True(t, errors.Is(err, domain.ErrExpired))
}

func TestVerifyEmailOTP_Mismatch(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Code: "123456", ExpiresAt: fixedNow.Add(time.Minute).Unix(),
	}, nil)
	ps.On("RecordFailedAttempt", mock.Anything, "asha@campus.edu").Return(1, nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "654321")

	assert.True(t, errors.Is(err, domain.ErrMismatch))
	ps.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVerifyEmailOTP_LastWrongGuessRetiresCode(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Code: "123456", ExpiresAt: fixedNow.Add(time.Minute).Unix(), Attempts: domain.MaxOTPAttempts - 1,
	}, nil)
	ps.On("RecordFailedAttempt", mock.Anything, "asha@campus.edu").Return(domain.MaxOTPAttempts, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "654321")

	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
	assert.True(t, errors.Is(err, domain.ErrExpired))
	ps.AssertCalled(t, "Delete", mock.Anything, "asha@campus.edu")
}

func TestVerifyEmailOTP_RetiredCodeRejectsCorrectGuess(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Code: "123456", ExpiresAt: fixedNow.Add(time.Minute).Unix(), Attempts: domain.MaxOTPAttempts,
	}, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	_, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "123456")

	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
	ps.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyEmailOTP_AtExpiryBoundaryStillValid(t *testing.T) {
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Email: "asha@campus.edu", Name: "Asha", Code: "012345", ExpiresAt: fixedNow.Unix(),
	}, nil)
	ps.On("MarkVerified", mock.Anything, "asha@campus.edu", "012345").Return(nil)

	svc := newService(ps, &mockUserStore{}, &mockMailer{}, true)
	p, err := svc.VerifyEmailOTP(context.Background(), "asha@campus.edu", "012345")

	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.True(t, p.Verified)
	ps.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// --- Register ---

func registerReq() domain.RegisterRequest {
	return domain.RegisterRequest{Name: "Asha", Email: "asha@campus.edu", Password: "secret1", Mobile: "9990001111"}
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(&domain.User{}, nil)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	_, err := svc.Register(context.Background(), registerReq())

	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
}

func TestRegister_MobileTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("MobileExists", mock.Anything, "9990001111").Return(true, nil)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	_, err := svc.Register(context.Background(), registerReq())

	assert.True(t, errors.Is(err, domain.ErrMobileTaken))
}

func TestRegister_RequiresVerifiedEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("MobileExists", mock.Anything, "9990001111").Return(false, nil)
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{Verified: false}, nil)

	svc := newService(ps, us, &mockMailer{}, true)
	_, err := svc.Register(context.Background(), registerReq())

	assert.True(t, errors.Is(err, domain.ErrNotVerified))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ExpiredVerificationRejected(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("MobileExists", mock.Anything, "9990001111").Return(false, nil)
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Verified: true, ExpiresAt: fixedNow.Add(-time.Hour).Unix(),
	}, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, us, &mockMailer{}, true)
	u, err := svc.Register(context.Background(), registerReq())

	assert.Nil(t, u)
	assert.True(t, errors.Is(err, domain.ErrNotVerified))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	ps.AssertCalled(t, "Delete", mock.Anything, "asha@campus.edu")
}

func TestRegister_NoPendingRecord(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("MobileExists", mock.Anything, "9990001111").Return(false, nil)
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)

	svc := newService(ps, us, &mockMailer{}, true)
	_, err := svc.Register(context.Background(), registerReq())

	assert.True(t, errors.Is(err, domain.ErrNotVerified))
}

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("MobileExists", mock.Anything, "9990001111").Return(false, nil)
	us.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	ps := &mockPendingStore{}
	ps.On("Get", mock.Anything, "asha@campus.edu").Return(&domain.PendingVerification{
		Verified: true, ExpiresAt: fixedNow.Add(time.Minute).Unix(),
	}, nil)
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(nil)

	svc := newService(ps, us, &mockMailer{}, true)
	u, err := svc.Register(context.Background(), registerReq())

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, domain.RoleStudent, u.Role)
	assert.True(t, u.IsVerified)
	require.NotNil(t, u.Mobile)
	assert.Equal(t, "9990001111", *u.Mobile)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
	ps.AssertCalled(t, "Delete", mock.Anything, "asha@campus.edu")
}

func TestRegister_PendingCleanupFailureIgnored(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything).Return(nil)
	ps := &mockPendingStore{}
	ps.On("Delete", mock.Anything, "asha@campus.edu").Return(errors.New("dynamo down"))

	req := registerReq()
	req.Mobile = ""
	req.Role = domain.RoleCoordinator
	svc := newService(ps, us, &mockMailer{}, false)
	u, err := svc.Register(context.Background(), req)

	require.NoError(t, err)
	assert.Nil(t, u.Mobile)
	assert.Equal(t, domain.RoleCoordinator, u.Role)
	us.AssertNotCalled(t, "MobileExists", mock.Anything, mock.Anything)
	ps.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRegister_CreateRaceSurfaces(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything).Return(domain.ErrAlreadyRegistered)

	req := registerReq()
	req.Mobile = ""
	svc := newService(&mockPendingStore{}, us, &mockMailer{}, false)
	_, err := svc.Register(context.Background(), req)

	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
}

// --- ForgotPassword ---

func TestForgotPassword_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@campus.edu").Return(nil, domain.ErrNotFound)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	err := svc.ForgotPassword(context.Background(), "ghost@campus.edu")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestForgotPassword_StoresHashAndMailsRawToken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(&domain.User{UserID: "u1", Email: "asha@campus.edu"}, nil)
	var storedHash string
	us.On("SetResetToken", mock.Anything, "u1", mock.Anything, fixedNow.Add(10*time.Minute)).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil)
	var body string
	ml := &mockMailer{}
	ml.On("SendEmail", "asha@campus.edu", "Password Reset Request", mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return(nil)

	svc := newService(&mockPendingStore{}, us, ml, true)
	require.NoError(t, svc.ForgotPassword(context.Background(), "asha@campus.edu"))

	m := regexp.MustCompile(`https://fest\.example\.com/reset-password/([0-9a-f]{40})`).FindStringSubmatch(body)
	require.Len(t, m, 2)
	assert.Equal(t, pkgtoken.Hash(m[1]), storedHash)
	assert.NotContains(t, body, storedHash)
	assert.True(t, strings.Contains(body, "10 minutes"))
}

func TestForgotPassword_SendFailureClearsToken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "asha@campus.edu").Return(&domain.User{UserID: "u1", Email: "asha@campus.edu"}, nil)
	us.On("SetResetToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)
	us.On("ClearResetToken", mock.Anything, "u1").Return(nil)
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(&mockPendingStore{}, us, ml, true)
	err := svc.ForgotPassword(context.Background(), "asha@campus.edu")

	assert.True(t, errors.Is(err, domain.ErrUpstreamSend))
	us.AssertCalled(t, "ClearResetToken", mock.Anything, "u1")
}

// --- ResetPassword ---

func TestResetPassword_InvalidOrExpired(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByResetToken", mock.Anything, pkgtoken.Hash("bad"), fixedNow).Return(nil, domain.ErrInvalidOrExpired)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	err := svc.ResetPassword(context.Background(), "bad", "newpass")

	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
	us.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_Success(t *testing.T) {
	h := pkgtoken.Hash("raw")
	us := &mockUserStore{}
	us.On("GetByResetToken", mock.Anything, h, fixedNow).Return(&domain.User{UserID: "u1"}, nil)
	var newHash string
	us.On("ResetPassword", mock.Anything, "u1", h, mock.Anything).
		Run(func(args mock.Arguments) { newHash = args.String(3) }).
		Return(nil)

	svc := newService(&mockPendingStore{}, us, &mockMailer{}, true)
	require.NoError(t, svc.ResetPassword(context.Background(), "raw", "newpass"))

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpass")))
}
