package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/fruitscan/apiserver/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

// UserRepository handles persistence for users in the Firestore
// users collection.
type UserRepository struct {
	client *firestore.Client
}

func NewUserRepository(client *firestore.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) users() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	snap, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	var user types.User
	if err := snap.DataTo(&user); err != nil {
		return types.User{}, err
	}
	user.ID = snap.Ref.ID
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	it := r.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	var user types.User
	if err := snap.DataTo(&user); err != nil {
		return types.User{}, err
	}
	user.ID = snap.Ref.ID
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.users().Doc(user.ID).Create(ctx, user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Update overwrites only the given fields on the user document.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	if _, err := r.users().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteField removes a single field from the user document.
func (r *UserRepository) DeleteField(ctx context.Context, id, field string) error {
	updates := []firestore.Update{{Path: field, Value: firestore.Delete}}
	if _, err := r.users().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}
