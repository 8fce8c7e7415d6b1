package auth

import (
	"fmt"
	"maps"
	"time"

	"sodalis/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a signed, self-contained bearer credential.
type Token struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer mints access tokens for verified principals
type Issuer struct {
	keys   *Keys
	issuer string
	now    func() time.Time
}

// Option tweaks an Issuer or a Validator
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewIssuer(keys *Keys, issuer string, opts ...Option) *Issuer {
	o := buildOptions(opts)
	return &Issuer{
		keys:   keys,
		issuer: issuer,
		now:    o.now,
	}
}

// Issue signs a token for p that expires ttl after now.
// exp is rounded up to a whole second, so a token stays valid for at least ttl.
// Every token gets a fresh jti, so two tokens are never byte-identical.
func (i *Issuer) Issue(p *Principal, ttl time.Duration) (*Token, error) {
	if p == nil || p.ID == "" {
		return nil, ErrUnauthenticated
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if i.keys == nil {
		return nil, ErrNoSigningKey
	}

	now := i.now()
	expiresAt := ceilSecond(now.Add(ttl))
	tokenID := uuid.NewString()

	claims := dto.AuthClaims{
		Email:  p.Email,
		Roles:  append([]string(nil), p.Roles...),
		Claims: maps.Clone(p.Claims),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
	}

	signed, err := jwt.NewWithClaims(i.keys.method, claims).SignedString(i.keys.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &Token{
		Value:     signed,
		ID:        tokenID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ceilSecond rounds t up to jwt.TimePrecision, which NumericDate truncates to
func ceilSecond(t time.Time) time.Time {
	if truncated := t.Truncate(jwt.TimePrecision); truncated.Before(t) {
		return truncated.Add(jwt.TimePrecision)
	}
	return t
}
