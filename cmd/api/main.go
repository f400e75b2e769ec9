package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/application/notification"
	"github.com/fest-portal-api/internal/application/reminder"
	"github.com/fest-portal-api/internal/config"
	"github.com/fest-portal-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/fest-portal-api/internal/infrastructure/jwt"
	"github.com/fest-portal-api/internal/infrastructure/postgres"
	redisinfra "github.com/fest-portal-api/internal/infrastructure/redis"
	s3infra "github.com/fest-portal-api/internal/infrastructure/s3"
	"github.com/fest-portal-api/internal/infrastructure/smtp"
	"github.com/fest-portal-api/internal/infrastructure/sns"
	transporthttp "github.com/fest-portal-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Relational store and schema.
	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Pending verifications live in DynamoDB with a TTL.
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamodb: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("s3: %v", err)
	}
	media := file.NewService(s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.S3PublicBaseURL))

	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional).
	var smsSender sns.SMSSender
	if cfg.SMSRemindersEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			slog.Warn("SMS reminders disabled: SNS sender not available", "err", err)
		}
	}

	var locker reminder.Locker = reminder.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		locker = redisinfra.NewLocker(rdb)
	}

	userRepo := postgres.NewUserRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	registrationRepo := postgres.NewRegistrationRepo(db)

	dispatcher := notification.NewDispatcher(notification.DispatcherDeps{
		Mailer:      mailer,
		FailureRepo: postgres.NewNotificationFailureRepo(db),
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
	})

	job := reminder.NewJob(reminder.JobDeps{
		EventRepo:        eventRepo,
		RegistrationRepo: registrationRepo,
		Notifier:         dispatcher,
		SMSSender:        smsSender,
		Locker:           locker,
		Interval:         cfg.ReminderInterval,
	})
	go job.Start(ctx)

	deps := &transporthttp.Deps{
		DB:               db,
		UserRepo:         userRepo,
		ClubRepo:         postgres.NewClubRepo(db),
		EventRepo:        eventRepo,
		RegistrationRepo: registrationRepo,
		PhotoRepo:        postgres.NewPhotoRepo(db),
		PendingRepo:      dynamo.NewPendingVerificationRepo(dynamoClient, cfg.DynamoTables.PendingVerifications),
		Media:            media,
		Mailer:           mailer,
		Notifier:         dispatcher,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Printf("notification queue not drained: %v", err)
	}
	log.Println("Server stopped")
}
