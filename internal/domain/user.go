package domain

import "time"

// Roles disponibles para usuarios.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	Role            string    `json:"role"`
	GoogleID        string    `json:"-"`
	PasswordHash    string    `json:"-"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}
