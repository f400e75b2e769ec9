package domain

import "time"

type Club struct {
	ClubID        string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	LogoURL       *string   `json:"logoUrl"`
	LogoKey       *string   `json:"-"`
	CoordinatorID string    `json:"coordinatorId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Populated on detail reads only.
	Coordinator *Contact `json:"coordinator,omitempty"`
}

// Contact is the name/email pair shown for a club or event owner.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ClubInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type ClubUpdate struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}
