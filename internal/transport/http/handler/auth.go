package handler

import (
	"net/http"

	"github.com/fest-portal-api/internal/application/auth"
	"github.com/fest-portal-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// AuthHandler handles signup, email verification and password reset.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.SendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SendVerificationOTP(r.Context(), req.Email, req.Name); err != nil {
		writeServiceError(w, r, err, "Server error while sending OTP.",
			failure{domain.ErrAlreadyRegistered, http.StatusBadRequest, "This email is already registered and verified."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent successfully. Check your email."})
}

func (h *AuthHandler) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.VerifyEmailOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, r, err, "Server error during OTP verification.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Verification failed: User record not found. Please resend OTP."},
			failure{domain.ErrTooManyAttempts, http.StatusBadRequest, "Verification failed: Too many invalid attempts. Please resend OTP."},
			failure{domain.ErrExpired, http.StatusBadRequest, "Verification failed: OTP has expired."},
			failure{domain.ErrMismatch, http.StatusUnauthorized, "Verification failed: Invalid OTP."},
		)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Message: "Email verified successfully.", Name: p.Name, Email: p.Email})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Server error during final registration.",
			failure{domain.ErrAlreadyRegistered, http.StatusBadRequest, "User already registered."},
			failure{domain.ErrMobileTaken, http.StatusBadRequest, "This mobile number is already registered."},
			failure{domain.ErrNotVerified, http.StatusBadRequest, "Email not verified. Please verify the OTP first."},
		)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterEnvelope{
		Message: "Final registration successful. You can now log in.",
		UserID:  u.UserID,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, "Error sending email.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
			failure{domain.ErrUpstreamSend, http.StatusInternalServerError, "Error sending email."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Email sent successfully."})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		writeServiceError(w, r, err, "Server error during password reset.",
			failure{domain.ErrInvalidOrExpired, http.StatusBadRequest, "Invalid or expired token."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful."})
}
