package types

import "time"

// User represents a registered account in the system.
// It contains identity, credential, and profile metadata.
type User struct {
	// ID is the unique identifier of the user. It doubles as the
	// Firestore document ID and is therefore not stored as a field.
	ID string `json:"userID" firestore:"-"`

	// Username is the display name chosen by the user.
	Username string `json:"username" firestore:"username"`

	// Email is the user's email address, unique across all users.
	Email string `json:"email" firestore:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" firestore:"password"`

	// DateOfRegistration is the timestamp when the account was created.
	DateOfRegistration time.Time `json:"dateOfRegistration" firestore:"dateOfRegistration"`

	// ProfilePictureURL is the public URL of the user's profile picture,
	// empty until one is uploaded.
	ProfilePictureURL string `json:"profilePictureURL,omitempty" firestore:"profilePictureURL,omitempty"`
}
