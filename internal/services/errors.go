package services

import "errors"

var (
	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoProfilePicture is returned when deleting a profile picture
	// that was never set.
	ErrNoProfilePicture = errors.New("no profile picture set")
)
