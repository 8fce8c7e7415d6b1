package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpired is returned for correctly signed tokens past their expiry.
	ErrExpired = errors.New("token expired")

	// ErrUnauthenticated means no principal is bound to the request.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned by the gate. It never says whether the target exists.
	ErrForbidden = errors.New("forbidden")

	ErrInvalidTTL = errors.New("token ttl must be positive")

	ErrNoSigningKey = errors.New("no signing key configured")
)

// IsAuthenticationError reports whether err should surface as a 401.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUnauthenticated)
}
