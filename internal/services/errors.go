// Package services holds the application logic behind each marketplace
// resource. This file centralizes the service-level error values so callers
// can match them with errors.Is and map them to transport results.
//
// Translation into HTTP status codes happens in the handler layer.
package services

import "errors"

// Account errors.
var (
	// ErrAccountExists is returned when registering an email that is already
	// taken in the same account collection.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotFound is returned by login when no account has the email.
	ErrAccountNotFound = errors.New("account not found")

	// ErrBadCredentials is returned by login on a password mismatch.
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Resource errors.
var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrProjectNotFound      = errors.New("project not found")
)

// Input errors.
var (
	// ErrInvalidInput wraps every malformed or missing request field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRating is returned when a review rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrMissingFile is returned when an upload route receives no file.
	ErrMissingFile = errors.New("no file uploaded")

	// ErrTooManyFiles is returned when a project carries too many images.
	ErrTooManyFiles = errors.New("too many files")
)
