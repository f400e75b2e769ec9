package http

import (
	"database/sql"

	fileapp "github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/application/notification"
	"github.com/fest-portal-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/fest-portal-api/internal/infrastructure/jwt"
	"github.com/fest-portal-api/internal/infrastructure/postgres"
	"github.com/fest-portal-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router. Long-lived
// workers (the notification dispatcher) are owned by main and passed in.
type Deps struct {
	DB               *sql.DB
	UserRepo         *postgres.UserRepo
	ClubRepo         *postgres.ClubRepo
	EventRepo        *postgres.EventRepo
	RegistrationRepo *postgres.RegistrationRepo
	PhotoRepo        *postgres.PhotoRepo
	PendingRepo      *dynamo.PendingVerificationRepo
	Media            fileapp.Service
	Mailer           smtp.Mailer
	Notifier         notification.Notifier
	JWTProvider      *jwtinfra.Provider
}
