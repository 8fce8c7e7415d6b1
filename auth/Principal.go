package auth

import (
	"slices"
	"time"
)

// Role codes baked into tokens. They match the codes seeded into the roles table.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is the identity bound to a single request.
// It is built from a verified credential or a validated token and is never stored.
type Principal struct {
	ID     string            `json:"id"`
	Email  string            `json:"emailAddress"`
	Roles  []string          `json:"roles"`
	Claims map[string]string `json:"claims,omitempty"`

	// Set only for principals recovered from a token
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// HasRole checks whether the principal holds the given role code
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin)
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Claim returns a static claim value, or "" when absent
func (p *Principal) Claim(key string) string {
	if p == nil || p.Claims == nil {
		return ""
	}
	return p.Claims[key]
}
