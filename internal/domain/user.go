package domain

import (
	"strings"
	"time"
)

type User struct {
	UserID              string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	Mobile              *string    `json:"mobile,omitempty"`
	ProfilePicURL       *string    `json:"profilePicUrl"`
	ProfilePicKey       *string    `json:"-"`
	IsVerified          bool       `json:"isVerified"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// PublicUser is the projection returned to clients after login.
type PublicUser struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	ProfilePicURL *string `json:"profilePicUrl"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.UserID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		ProfilePicURL: u.ProfilePicURL,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student coordinator admin"`
	Mobile   string `json:"mobile" validate:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
