package model

import "time"

// Subject represents an academic course or subject.
type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Credits     int       `json:"credits"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Code        string `json:"code" validate:"required,min=2,max=20"`
	Description string `json:"description" validate:"max=500"`
	Credits     int    `json:"credits" validate:"required,min=1,max=20"`
}

// UpdateSubjectRequest is the payload for updating a subject.
type UpdateSubjectRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=100"`
	Code        string `json:"code" validate:"omitempty,min=2,max=20"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Credits     int    `json:"credits" validate:"omitempty,min=1,max=20"`
}
