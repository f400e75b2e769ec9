package http

import (
	"net/http"

	"github.com/fest-portal-api/internal/application/auth"
	"github.com/fest-portal-api/internal/application/club"
	"github.com/fest-portal-api/internal/application/event"
	"github.com/fest-portal-api/internal/application/photo"
	"github.com/fest-portal-api/internal/application/session"
	"github.com/fest-portal-api/internal/application/user"
	"github.com/fest-portal-api/internal/config"
	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/transport/http/handler"
	appmiddleware "github.com/fest-portal-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	staffOnly := appmiddleware.RequireRole(domain.RoleCoordinator, domain.RoleAdmin)

	// 5 requests/second, burst of 10 per client IP on the auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		PendingRepo:           deps.PendingRepo,
		UserRepo:              deps.UserRepo,
		Mailer:                deps.Mailer,
		AppName:               cfg.AppName,
		FrontendURL:           cfg.FrontendURL,
		OTPTTL:                cfg.OTPTTL,
		ResetTokenTTL:         cfg.ResetTokenTTL,
		RequireVerifiedSignup: cfg.RequireVerifiedSignup,
	})
	sessionSvc := session.NewService(session.ServiceDeps{UserRepo: deps.UserRepo, JWTProvider: deps.JWTProvider})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:         deps.UserRepo,
		RegistrationRepo: deps.RegistrationRepo,
		Media:            deps.Media,
	})
	clubSvc := club.NewService(club.ServiceDeps{ClubRepo: deps.ClubRepo, Media: deps.Media})
	eventSvc := event.NewService(event.ServiceDeps{
		EventRepo:        deps.EventRepo,
		RegistrationRepo: deps.RegistrationRepo,
		UserRepo:         deps.UserRepo,
		Notifier:         deps.Notifier,
		AppName:          cfg.AppName,
		FrontendURL:      cfg.FrontendURL,
	})
	photoSvc := photo.NewService(photo.ServiceDeps{PhotoRepo: deps.PhotoRepo, ClubRepo: deps.ClubRepo, Media: deps.Media})

	var pinger handler.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	healthH := handler.NewHealthHandler(pinger)
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	clubH := handler.NewClubHandler(clubSvc)
	eventH := handler.NewEventHandler(eventSvc)
	photoH := handler.NewPhotoHandler(photoSvc)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Get("/roles", handler.ListRoles)

		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send-otp", authH.SendOTP)
			r.Post("/verify-email-otp", authH.VerifyEmailOTP)
			r.Post("/register", authH.Register)
			r.Post("/login", sessionH.Login)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Put("/reset-password/{token}", authH.ResetPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMw)
			r.Put("/profile-pic", userH.UploadProfilePic)
			r.Delete("/profile-pic", userH.RemoveProfilePic)
			r.Put("/me/password", userH.ChangePassword)
			r.Delete("/me", userH.DeleteMe)
			r.Get("/me/my-registrations", userH.MyRegistrations)
		})

		r.Route("/clubs", func(r chi.Router) {
			r.Get("/", clubH.List)
			r.Get("/{id}", clubH.Get)
			r.With(authMw, staffOnly).Post("/", clubH.Create)
			r.With(authMw, staffOnly).Put("/{id}", clubH.Update)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventH.List)
			r.With(authMw, staffOnly).Get("/my-events", eventH.MyEvents)
			r.Get("/{eventId}", eventH.Get)
			r.With(authMw, staffOnly).Post("/", eventH.Create)
			r.With(authMw, staffOnly).Put("/{eventId}", eventH.Update)
			r.With(authMw, staffOnly).Get("/{eventId}/export", eventH.Export)
			r.With(authMw).Post("/{eventId}/register", eventH.Register)
		})

		r.Route("/photos", func(r chi.Router) {
			r.Get("/{clubId}", photoH.List)
			r.With(authMw, staffOnly).Post("/{clubId}", photoH.Upload)
			r.With(authMw, staffOnly).Delete("/delete/{photoId}", photoH.Delete)
		})
	})

	return r
}
