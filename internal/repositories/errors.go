package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by a compare-and-swap write whose
	// expected version no longer matches the stored document.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidCredentials is returned by the identity provider on a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when an access token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
)

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsVersionConflict reports whether err is a failed compare-and-swap.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
