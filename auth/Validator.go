package auth

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"sodalis/dto"

	"github.com/golang-jwt/jwt/v5"
)

// Validator verifies bearer tokens minted by an Issuer sharing the same Keys
type Validator struct {
	keys   *Keys
	parser *jwt.Parser
}

func NewValidator(keys *Keys, issuer string, opts ...Option) *Validator {
	o := buildOptions(opts)

	parserOptions := []jwt.ParserOption{
		// Only the configured algorithm is accepted, so an HS256 token can never be
		// checked against an RSA public key and "none" is rejected outright.
		jwt.WithValidMethods([]string{keys.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(o.now),
	}
	if issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(issuer))
	}

	return &Validator{
		keys:   keys,
		parser: jwt.NewParser(parserOptions...),
	}
}

// Validate checks signature and expiry and returns the principal the token was issued for.
func (v *Validator) Validate(raw string) (*Principal, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &dto.AuthClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return v.keys.verifyKey, nil
	})
	if err != nil {
		// Signature is checked before the time based claims, so an expired token
		// only reaches this branch once its signature is known to be good.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	p := &Principal{
		ID:      claims.Subject,
		Email:   claims.Email,
		Roles:   append([]string(nil), claims.Roles...),
		Claims:  maps.Clone(claims.Claims),
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	return p, nil
}

// ExpiresIn reports the remaining lifetime of a validated principal's token
func ExpiresIn(p *Principal, now time.Time) time.Duration {
	if p == nil || p.ExpiresAt.IsZero() {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
