package event

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fest-portal-api/internal/application/notification"
	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/pkg/id"
)

// DateLayout is how event dates are rendered in outgoing emails.
const DateLayout = "Mon, 02 Jan 2006 3:04 PM MST"

// Export is a rendered CSV attachment.
type Export struct {
	Filename string
	Data     []byte
}

type Service interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Create(ctx context.Context, coordinatorID string, in domain.EventInput) (*domain.Event, error)
	Update(ctx context.Context, actor domain.Actor, eventID string, in domain.EventInput) (*domain.Event, error)
	MyEvents(ctx context.Context, coordinatorID string) ([]domain.Event, error)
	Register(ctx context.Context, userID, eventID string) error
	ExportCSV(ctx context.Context, coordinatorID, eventID string) (*Export, error)
}

type eventStore interface {
	Create(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	ListByCoordinator(ctx context.Context, coordinatorID string) ([]domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
}

type registrationStore interface {
	Create(ctx context.Context, reg *domain.Registration) error
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	ListVerifiedEmails(ctx context.Context) ([]string, error)
}

type service struct {
	events        eventStore
	registrations registrationStore
	users         userStore
	notifier      notification.Notifier
	clock         func() time.Time
	appName       string
	frontendURL   string
}

type ServiceDeps struct {
	EventRepo        eventStore
	RegistrationRepo registrationStore
	UserRepo         userStore
	Notifier         notification.Notifier
	Clock            func() time.Time
	AppName          string
	FrontendURL      string
}

func NewService(deps ServiceDeps) Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		events:        deps.EventRepo,
		registrations: deps.RegistrationRepo,
		users:         deps.UserRepo,
		notifier:      deps.Notifier,
		clock:         clock,
		appName:       deps.AppName,
		frontendURL:   deps.FrontendURL,
	}
}

func (s *service) List(ctx context.Context) ([]domain.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (s *service) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.events.Get(ctx, eventID)
}

// Create stores the event and announces it to every verified user.
func (s *service) Create(ctx context.Context, coordinatorID string, in domain.EventInput) (*domain.Event, error) {
	now := s.clock().UTC()
	e := &domain.Event{
		EventID:       id.New(),
		Title:         in.Title,
		Description:   in.Description,
		Venue:         in.Venue,
		EventDate:     in.EventDate.UTC(),
		ClubName:      in.ClubName,
		CoordinatorID: coordinatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}

	emails, err := s.users.ListVerifiedEmails(ctx)
	if err != nil {
		slog.Warn("failed to load announcement audience", "event_id", e.EventID, "err", err)
		return e, nil
	}
	s.notifier.Enqueue(domain.Message{
		To:      strings.Join(emails, ", "),
		Subject: fmt.Sprintf("[New Event Alert] %s: %s", e.ClubName, e.Title),
		Body: fmt.Sprintf("Hello %s Community,\n\nA new event has been officially posted:\n\n"+
			"Title: %s\nClub: %s\nVenue: %s\nDate & Time: %s\n\nVisit the portal to register now!\n%s/events\n",
			s.appName, e.Title, e.ClubName, e.Venue, e.EventDate.Format(DateLayout), s.frontendURL),
	})
	return e, nil
}

// Update replaces every editable field and tells registrants about it.
func (s *service) Update(ctx context.Context, actor domain.Actor, eventID string, in domain.EventInput) (*domain.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(e.CoordinatorID) {
		return nil, fmt.Errorf("event %s not owned by %s: %w", eventID, actor.UserID, domain.ErrForbidden)
	}
	e.Title = in.Title
	e.Description = in.Description
	e.Venue = in.Venue
	e.EventDate = in.EventDate.UTC()
	e.ClubName = in.ClubName
	e.UpdatedAt = s.clock().UTC()
	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}

	attendees, err := s.registrations.ListAttendees(ctx, eventID)
	if err != nil {
		slog.Warn("failed to load registrants for update notice", "event_id", eventID, "err", err)
		return e, nil
	}
	if len(attendees) == 0 {
		return e, nil
	}
	s.notifier.Enqueue(domain.Message{
		To:      joinEmails(attendees),
		Subject: "[EVENT UPDATE] " + e.Title,
		Body: fmt.Sprintf("Hello,\n\nPlease note that details for an event you are registered for have changed:\n\n"+
			"Event: %s\nNew Date: %s\nNew Venue: %s\n\nPlease check the portal for full details.\n",
			e.Title, e.EventDate.Format(DateLayout), e.Venue),
	})
	return e, nil
}

func (s *service) MyEvents(ctx context.Context, coordinatorID string) ([]domain.Event, error) {
	events, err := s.events.ListByCoordinator(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		attendees, err := s.registrations.ListAttendees(ctx, events[i].EventID)
		if err != nil {
			return nil, err
		}
		students := make([]domain.Contact, 0, len(attendees))
		for _, a := range attendees {
			students = append(students, domain.Contact{Name: a.Name, Email: a.Email})
		}
		events[i].RegisteredStudents = students
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (s *service) Register(ctx context.Context, userID, eventID string) error {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if e.CoordinatorID == userID {
		return fmt.Errorf("coordinator cannot register for own event: %w", domain.ErrForbidden)
	}
	exists, err := s.registrations.Exists(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("already registered for %s: %w", eventID, domain.ErrConflict)
	}
	reg := &domain.Registration{
		RegistrationID: id.New(),
		EventID:        eventID,
		UserID:         userID,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		return err
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		slog.Warn("failed to load registrant for confirmation", "user_id", userID, "err", err)
		return nil
	}
	s.notifier.Enqueue(domain.Message{
		To:      u.Email,
		Subject: "Registration Confirmed: " + e.Title,
		Body: fmt.Sprintf("Hello %s,\n\nYou have successfully registered for the following event:\n\n"+
			"Event: %s\nDate: %s\nVenue: %s\n\nWe look forward to seeing you there!\n",
			u.Name, e.Title, e.EventDate.Format(DateLayout), e.Venue),
	})
	return nil
}

// ExportCSV renders the registrant list of an event owned by coordinatorID.
// Events owned by someone else are reported as not found.
func (s *service) ExportCSV(ctx context.Context, coordinatorID, eventID string) (*Export, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CoordinatorID != coordinatorID {
		return nil, fmt.Errorf("event %s not owned by %s: %w", eventID, coordinatorID, domain.ErrNotFound)
	}
	attendees, err := s.registrations.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Name", "Email"}); err != nil {
		return nil, err
	}
	for _, a := range attendees {
		if err := w.Write([]string{csvCell(a.Name), csvCell(a.Email)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return &Export{Filename: e.Title + "-registrations.csv", Data: buf.Bytes()}, nil
}

// csvCell quotes a leading formula character so spreadsheets show the
// value as text.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func joinEmails(attendees []domain.Attendee) string {
	emails := make([]string, len(attendees))
	for i, a := range attendees {
		emails[i] = a.Email
	}
	return strings.Join(emails, ", ")
}
