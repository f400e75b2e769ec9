package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Registration and OTP flow.
	ErrAlreadyRegistered = errors.New("already registered")
	ErrMobileTaken       = errors.New("mobile already registered")
	ErrNotVerified       = errors.New("email not verified")
	ErrExpired           = errors.New("expired")
	ErrMismatch          = errors.New("code mismatch")

	// ErrTooManyAttempts retires a code after repeated wrong guesses.
	ErrTooManyAttempts = fmt.Errorf("too many attempts: %w", ErrExpired)

	// Login and password reset.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOrExpired   = errors.New("invalid or expired token")

	// ErrAlreadyOwnsClub is a conflict: a coordinator manages at most one club.
	ErrAlreadyOwnsClub = fmt.Errorf("already owns a club: %w", ErrConflict)

	// ErrUpstreamSend marks a failure of the mail or SMS provider.
	ErrUpstreamSend = errors.New("upstream send failure")
)
