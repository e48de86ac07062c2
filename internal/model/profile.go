package model

import "time"

// UserProfile is the authoritative current-user record. A stub is synthesized
// from token claims at session bootstrap and replaced once the full profile
// arrives.
type UserProfile struct {
	User
	TeacherProfile *TeacherProfile `json:"teacherProfile,omitempty"`
	StudentProfile *StudentProfile `json:"studentProfile,omitempty"`
}

// TeacherProfile is the role-specific sub-profile for teachers.
type TeacherProfile struct {
	Qualification string `json:"qualification"`
	Expertise     string `json:"expertise"`
	Experience    int    `json:"experience"`
	Bio           string `json:"bio"`
}

// StudentProfile is the role-specific sub-profile for students.
type StudentProfile struct {
	RollNumber          string `json:"rollNumber"`
	Grade               string `json:"grade"`
	ParentContactNumber string `json:"parentContactNumber"`
}

// StubProfile synthesizes a minimal profile from token claims so the user
// stream never publishes an empty state before the authoritative fetch lands.
func StubProfile(c *Claims, now time.Time) *UserProfile {
	return &UserProfile{
		User: User{
			ID:        c.Subject,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Role:      c.Role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// ProfileStatus is the profile-completion check response.
type ProfileStatus struct {
	ProfileCompleted        bool `json:"profileCompleted"`
	Role                    Role `json:"role"`
	RequiresAdditionalSetup bool `json:"requiresAdditionalSetup"`
}

// UpdateProfileRequest is the payload for editing the current user's profile.
type UpdateProfileRequest struct {
	FirstName     string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName      string `json:"lastName" validate:"omitempty,min=1,max=100"`
	ContactNumber string `json:"contactNumber" validate:"omitempty,min=6,max=20"`
}

// TeacherProfileRequest completes a teacher profile.
type TeacherProfileRequest struct {
	Qualification string `json:"qualification" validate:"required,max=200"`
	Expertise     string `json:"expertise" validate:"required,max=200"`
	Experience    int    `json:"experience" validate:"min=0,max=80"`
	Bio           string `json:"bio" validate:"max=1000"`
}

// StudentProfileRequest completes a student profile.
type StudentProfileRequest struct {
	RollNumber          string `json:"rollNumber" validate:"required,max=50"`
	Grade               string `json:"grade" validate:"required,max=20"`
	ParentContactNumber string `json:"parentContactNumber" validate:"required,min=6,max=20"`
}
