package model

import "time"

// Role enumerates the portal user roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// User represents a portal user account.
type User struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	ContactNumber    string    `json:"contactNumber"`
	IsActive         bool      `json:"isActive"`
	ProfileCompleted bool      `json:"hasCompletedProfile"`
	ProfilePicture   string    `json:"profilePicture,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Name returns the user's display name.
func (u *User) Name() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}

// CreateUserRequest is the payload for creating a user (admin only).
type CreateUserRequest struct {
	FirstName     string `json:"firstName" validate:"required,min=1,max=100"`
	LastName      string `json:"lastName" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          Role   `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	ContactNumber string `json:"contactNumber" validate:"required,min=6,max=20"`
}

// UpdateUserRequest is the payload for updating a user (admin only).
type UpdateUserRequest struct {
	FirstName     string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName      string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	ContactNumber string `json:"contactNumber" validate:"omitempty,min=6,max=20"`
}
