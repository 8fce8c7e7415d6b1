package dto

import (
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims will be encoded inside the access token
type AuthClaims struct {
	Email  string            `json:"email,omitempty"`
	Roles  []string          `json:"roles,omitempty"`
	Claims map[string]string `json:"claims,omitempty"`
	// Standard claims (sub, exp, iat, nbf, iss, jti) are embedded here
	jwt.RegisteredClaims
}
