package dto

import "time"

// LoginRequest is the authentication request body
type LoginRequest struct {
	EmailAddress string `json:"emailAddress" validate:"required,max=128"`
	Password     string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	Token        string `json:"token"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=50"`
	EmailAddress string `json:"emailAddress" validate:"required,email,max=128"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
}

// RefreshRequest carries the refresh token when it is not sent as a cookie
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"max=256"`
}

type MeResponse struct {
	ID           string            `json:"id"`
	EmailAddress string            `json:"emailAddress"`
	Roles        []string          `json:"roles"`
	Claims       map[string]string `json:"claims,omitempty"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	ExpiresIn    int               `json:"expiresIn"` // seconds left
}
