package domain

import "time"

// Message is an outbound email. To may hold a comma-joined list of addresses.
type Message struct {
	To      string
	Subject string
	Body    string
}

// NotificationFailure records a background email that could not be delivered.
type NotificationFailure struct {
	FailureID string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
}
