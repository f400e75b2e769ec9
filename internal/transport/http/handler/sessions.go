package handler

import (
	"net/http"

	"github.com/fest-portal-api/internal/application/session"
	"github.com/fest-portal-api/internal/domain"
)

// SessionHandler handles login.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Server error during login.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
			failure{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials."},
		)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User,
	})
}
