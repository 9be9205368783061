package core

import "errors"

var (
	// Caller errors; the presentation layer is expected to validate first.
	ErrConflict       = errors.New("code already in use")
	ErrUnknownOwner   = errors.New("unknown owner")
	ErrInvalidMaxUses = errors.New("max uses must be positive")
	ErrInvalidCode    = errors.New("invalid code")
	ErrInvalidURL     = errors.New("invalid url")
	ErrInvalidExpiry  = errors.New("expiry must be in the future")
)

// IsConflict reports whether err indicates a code uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsUnknownOwner reports whether err refers to an unregistered user.
func IsUnknownOwner(err error) bool { return errors.Is(err, ErrUnknownOwner) }

// IsInvalidInput reports whether err is a validation failure on caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidMaxUses) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidExpiry)
}
