package domain

import "time"

type Event struct {
	EventID        string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Venue          string     `json:"venue"`
	EventDate      time.Time  `json:"eventDate"`
	ClubName       string     `json:"clubName"`
	CoordinatorID  string     `json:"coordinatorId"`
	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	Coordinator        *Contact  `json:"coordinator,omitempty"`
	RegisteredStudents []Contact `json:"registeredStudents,omitempty"`
}

// EventInput carries every editable field; updates replace all of them.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Venue       string    `json:"venue" validate:"required,max=200"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
	ClubName    string    `json:"clubName" validate:"required,max=120"`
}

type Registration struct {
	RegistrationID string    `json:"id"`
	EventID        string    `json:"eventId"`
	UserID         string    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Attendee is a registrant as seen by notification and export code.
type Attendee struct {
	Name   string
	Email  string
	Mobile *string
}
