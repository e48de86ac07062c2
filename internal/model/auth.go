package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the access/refresh token pair issued by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are the fields embedded in the access token. The client never
// verifies the signature; it only reads claims to derive identity and expiry.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the admin sign-up payload.
type SignupRequest struct {
	FirstName     string `json:"firstName" validate:"required,min=1,max=100"`
	LastName      string `json:"lastName" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	ContactNumber string `json:"contactNumber" validate:"required,min=6,max=20"`
}

// AuthResult is the data portion of a successful sign-in or refresh response.
type AuthResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *UserProfile `json:"user"`
}
