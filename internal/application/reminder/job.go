// Package reminder emails registrants shortly before their events start.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fest-portal-api/internal/application/event"
	"github.com/fest-portal-api/internal/application/notification"
	"github.com/fest-portal-api/internal/domain"
)

const (
	lockKey = "lock:event-reminders"
	lockTTL = 10 * time.Minute

	windowStart = 3 * time.Hour
	windowEnd   = 4 * time.Hour
)

// Locker serializes runs. release is nil when ok is false.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type eventStore interface {
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	ClaimReminder(ctx context.Context, eventID string, now time.Time) (bool, error)
}

type registrationStore interface {
	ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type JobDeps struct {
	EventRepo        eventStore
	RegistrationRepo registrationStore
	Notifier         notification.Notifier
	// SMSSender is optional.
	SMSSender smsSender
	Locker    Locker
	Clock     func() time.Time
	Interval  time.Duration
}

type Job struct {
	events        eventStore
	registrations registrationStore
	notifier      notification.Notifier
	sms           smsSender
	locker        Locker
	clock         func() time.Time
	interval      time.Duration
}

func NewJob(deps JobDeps) *Job {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Job{
		events:        deps.EventRepo,
		registrations: deps.RegistrationRepo,
		notifier:      deps.Notifier,
		sms:           deps.SMSSender,
		locker:        locker,
		clock:         clock,
		interval:      interval,
	}
}

// Start runs the job immediately and then every interval until ctx ends.
func (j *Job) Start(ctx context.Context) {
	slog.Info("event reminder job started", "interval", j.interval)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		if _, err := j.RunOnce(ctx); err != nil {
			slog.Error("event reminder run failed", "err", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("event reminder job stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce reminds registrants of every unreminded event starting between
// three and four hours from now. It returns how many events were reminded.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	release, ok, err := j.locker.TryLock(ctx, lockKey, lockTTL)
	if err != nil {
		return 0, err
	}
	if !ok {
		slog.Info("event reminder run skipped, another run holds the lock")
		return 0, nil
	}
	defer release()

	now := j.clock()
	due, err := j.events.ListDueForReminder(ctx, now.Add(windowStart), now.Add(windowEnd))
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		slog.Info("no events in reminder window")
		return 0, nil
	}

	sent := 0
	for i := range due {
		e := &due[i]
		claimed, err := j.events.ClaimReminder(ctx, e.EventID, now.UTC())
		if err != nil {
			slog.Error("failed to claim event reminder", "event_id", e.EventID, "err", err)
			continue
		}
		if !claimed {
			continue
		}
		attendees, err := j.registrations.ListAttendees(ctx, e.EventID)
		if err != nil {
			slog.Error("failed to load registrants", "event_id", e.EventID, "err", err)
			continue
		}
		if len(attendees) == 0 {
			continue
		}
		j.remind(ctx, e, attendees)
		sent++
		slog.Info("event reminders sent", "event_id", e.EventID, "title", e.Title, "recipients", len(attendees))
	}
	return sent, nil
}

func (j *Job) remind(ctx context.Context, e *domain.Event, attendees []domain.Attendee) {
	emails := make([]string, len(attendees))
	for i, a := range attendees {
		emails[i] = a.Email
	}
	when := e.EventDate.Format(event.DateLayout)
	j.notifier.Enqueue(domain.Message{
		To:      strings.Join(emails, ", "),
		Subject: "[REMINDER] Event Starting Soon: " + e.Title,
		Body: fmt.Sprintf("Hi there,\n\nThis is a reminder that the event you registered for is starting in about %d hours!\n\n"+
			"Event: %s\nClub: %s\nWhen: %s\nWhere: %s\n\nWe look forward to seeing you!\n",
			int(windowEnd.Hours()), e.Title, e.ClubName, when, e.Venue),
	})

	if j.sms == nil {
		return
	}
	text := fmt.Sprintf("Reminder: %s starts %s at %s.", e.Title, when, e.Venue)
	for _, a := range attendees {
		if a.Mobile == nil || *a.Mobile == "" {
			continue
		}
		if err := j.sms.SendSMS(ctx, *a.Mobile, text); err != nil {
			slog.Warn("failed to send reminder sms", "event_id", e.EventID, "err", err)
		}
	}
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(_ context.Context, _ string, _ time.Duration) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
