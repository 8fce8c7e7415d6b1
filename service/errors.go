package service

import "errors"

var (
	// ErrNotFound is only returned to callers allowed to know the record is missing
	ErrNotFound = errors.New("not found")

	ErrConflict = errors.New("already exists")

	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRefreshToken covers unknown, expired, revoked and reused refresh tokens
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
