package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fest-portal-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper. Code is a stable
// machine-readable tag set on failures.
type MessageEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// VerifyEnvelope wraps a successful email verification.
type VerifyEnvelope struct {
	Message string `json:"message"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// RegisterEnvelope wraps a successful registration.
type RegisterEnvelope struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginEnvelope wraps login responses.
type LoginEnvelope struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// UserEnvelope wraps profile picture responses.
type UserEnvelope struct {
	Message string            `json:"message"`
	User    domain.PublicUser `json:"user"`
}

type ClubEnvelope struct {
	Message string       `json:"message"`
	Club    *domain.Club `json:"club"`
}

type EventEnvelope struct {
	Message string        `json:"message"`
	Event   *domain.Event `json:"event"`
}

type PhotoEnvelope struct {
	Message  string        `json:"message"`
	ImageURL string        `json:"imageUrl"`
	Photo    *domain.Photo `json:"photo"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}
