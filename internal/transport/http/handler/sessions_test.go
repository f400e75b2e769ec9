package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fest-portal-api/internal/application/session"
	"github.com/fest-portal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req session.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestLogin_Success(t *testing.T) {
	svc := &mockSessionSvc{}
	req := session.LoginRequest{Email: "asha@campus.edu", Password: "secret1"}
	svc.On("Login", mock.Anything, req).Return(&session.LoginResult{
		Token: "signed",
		User:  domain.PublicUser{ID: "u1", Name: "Asha", Email: "asha@campus.edu", Role: domain.RoleStudent},
	}, nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, postJSON(t, "/api/auth/login", req))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp LoginEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "signed", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	svc.AssertExpectations(t)
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unknown email", fmt.Errorf("user: %w", domain.ErrNotFound), http.StatusNotFound, "User not found."},
		{"wrong password", domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials."},
		{"unexpected", fmt.Errorf("db error: timeout"), http.StatusInternalServerError, "Server error during login."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessionSvc{}
			svc.On("Login", mock.Anything, mock.Anything).Return(nil, tc.err)
			h := NewSessionHandler(svc)

			rr := httptest.NewRecorder()
			h.Login(rr, postJSON(t, "/api/auth/login", session.LoginRequest{Email: "asha@campus.edu", Password: "x"}))

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.message, decodeEnvelope(t, rr).Message)
		})
	}
}
