package util

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyError checks if the error is a database unique constraint violation
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Postgres "SQLSTATE 23505" when the dialector does not translate errors
	return strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "23505")
}
