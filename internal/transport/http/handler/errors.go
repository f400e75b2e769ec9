package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fest-portal-api/internal/domain"
)

// failure overrides the response for one sentinel error on one route.
type failure struct {
	target  error
	status  int
	message string
}

var errorCodes = []struct {
	target error
	code   string
	status int
}{
	{domain.ErrAlreadyRegistered, "already_registered", http.StatusBadRequest},
	{domain.ErrMobileTaken, "mobile_taken", http.StatusBadRequest},
	{domain.ErrNotVerified, "not_verified", http.StatusBadRequest},
	{domain.ErrTooManyAttempts, "too_many_attempts", http.StatusBadRequest},
	{domain.ErrExpired, "expired", http.StatusBadRequest},
	{domain.ErrMismatch, "mismatch", http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, "invalid_credentials", http.StatusUnauthorized},
	{domain.ErrInvalidOrExpired, "invalid_or_expired_token", http.StatusBadRequest},
	{domain.ErrUpstreamSend, "upstream_send_failed", http.StatusInternalServerError},
	{domain.ErrNotFound, "not_found", http.StatusNotFound},
	{domain.ErrConflict, "conflict", http.StatusBadRequest},
	{domain.ErrForbidden, "forbidden", http.StatusForbidden},
	{domain.ErrUnauthorized, "unauthorized", http.StatusUnauthorized},
	{domain.ErrBadRequest, "bad_request", http.StatusBadRequest},
}

// writeServiceError maps err to a response. Route-specific failures win;
// otherwise the sentinel's default status is used with the wrapped error
// text. Anything unrecognised is logged and answered with serverMsg.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, serverMsg string, failures ...failure) {
	for _, f := range failures {
		if errors.Is(err, f.target) {
			writeJSON(w, f.status, MessageEnvelope{Message: f.message, Code: codeOf(err)})
			return
		}
	}
	for _, c := range errorCodes {
		if !errors.Is(err, c.target) {
			continue
		}
		if c.status == http.StatusInternalServerError {
			break
		}
		writeJSON(w, c.status, MessageEnvelope{Message: clientMessage(err, c.target), Code: c.code})
		return
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, MessageEnvelope{Message: serverMsg, Code: codeOf(err)})
}

func codeOf(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return "internal"
}

// clientMessage strips the ": <sentinel>" suffix added by services.
func clientMessage(err, target error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+target.Error())
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
