package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fruitscan/apiserver/internal/logging"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	DeleteField(ctx context.Context, id, field string) error
}

// BlobStorage defines the object-storage operations the services need.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyForURL(publicURL string) (string, bool)
}

// ProfileUpdate carries the optional fields of a partial profile update.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// UserService encapsulates registration, credential verification, and
// profile management.
type UserService struct {
	users      UserRepository
	blobs      BlobStorage
	log        logging.Logger
	bcryptCost int
}

func NewUserService(users UserRepository, blobs BlobStorage, log logging.Logger, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		blobs:      blobs,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user. The email-uniqueness check is a lookup
// before the write, matching the behavior of the stored data model.
func (s *UserService) Register(ctx context.Context, username, email, password string) (types.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := types.User{
		ID:                 uuid.NewString(),
		Username:           username,
		Email:              email,
		PasswordHash:       string(hashed),
		DateOfRegistration: time.Now().UTC(),
	}
	return s.users.Create(ctx, user)
}

// VerifyCredentials checks an email/password pair. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (types.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile overwrites only the supplied fields and returns what
// changed. A supplied password is re-hashed; its value is never echoed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (map[string]any, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	changed := make(map[string]any)
	if update.Username != nil {
		fields["username"] = *update.Username
		changed["username"] = *update.Username
	}
	if update.Email != nil {
		fields["email"] = *update.Email
		changed["email"] = *update.Email
	}
	if update.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		fields["password"] = string(hashed)
		changed["password"] = "updated"
	}

	if err := s.users.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return changed, nil
}

// SetProfilePicture uploads the picture, points the user at it, and then
// best-effort deletes the previous blob. A failed cleanup is logged but
// does not fail the call.
func (s *UserService) SetProfilePicture(ctx context.Context, userID string, data []byte, filename, contentType string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("profile-pictures/%s/%s_%s", userID, uuid.NewString(), filename)
	url, err := s.blobs.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}

	if err := s.users.Update(ctx, userID, map[string]any{"profilePictureURL": url}); err != nil {
		return "", err
	}

	if user.ProfilePictureURL != "" {
		s.deletePreviousPicture(ctx, userID, user.ProfilePictureURL)
	}
	return url, nil
}

func (s *UserService) deletePreviousPicture(ctx context.Context, userID, previousURL string) {
	key, ok := s.blobs.KeyForURL(previousURL)
	if !ok {
		s.log.Warn(ctx, "previous profile picture url not recognized", "userID", userID, "url", previousURL)
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "failed to delete previous profile picture", "userID", userID, "key", key, "error", err)
	}
}

// DeleteProfilePicture removes the blob and clears the field. The field
// is only cleared after the blob delete succeeds.
func (s *UserService) DeleteProfilePicture(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfilePictureURL == "" {
		return ErrNoProfilePicture
	}

	key, ok := s.blobs.KeyForURL(user.ProfilePictureURL)
	if !ok {
		return fmt.Errorf("profile picture url not recognized: %s", user.ProfilePictureURL)
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		return err
	}
	return s.users.DeleteField(ctx, userID, "profilePictureURL")
}
