package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fruitscan/apiserver/internal/logging"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
)

// --- test doubles ---

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUserRepo struct {
	users map[string]types.User

	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if f.createErr != nil {
		return types.User{}, f.createErr
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for path, value := range fields {
		str, _ := value.(string)
		switch path {
		case "username":
			user.Username = str
		case "email":
			user.Email = str
		case "password":
			user.PasswordHash = str
		case "profilePictureURL":
			user.ProfilePictureURL = str
		}
	}
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) DeleteField(ctx context.Context, id, field string) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if field == "profilePictureURL" {
		user.ProfilePictureURL = ""
	}
	f.users[id] = user
	return nil
}

type fakeScanRepo struct {
	records map[string]map[string]types.ScanRecord

	deleteAllErr error
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{records: make(map[string]map[string]types.ScanRecord)}
}

func (f *fakeScanRepo) Create(ctx context.Context, userID string, record types.ScanRecord) (types.ScanRecord, error) {
	if f.records[userID] == nil {
		f.records[userID] = make(map[string]types.ScanRecord)
	}
	f.records[userID][record.ID] = record
	return record, nil
}

func (f *fakeScanRepo) Get(ctx context.Context, userID, scanID string) (types.ScanRecord, error) {
	record, ok := f.records[userID][scanID]
	if !ok {
		return types.ScanRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (f *fakeScanRepo) List(ctx context.Context, userID, fruitName, scanResult string) ([]types.ScanRecord, error) {
	var out []types.ScanRecord
	for _, record := range f.records[userID] {
		if fruitName != "" && record.FruitName != fruitName {
			continue
		}
		if scanResult != "" && record.ScanResult != scanResult {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeScanRepo) Delete(ctx context.Context, userID, scanID string) error {
	delete(f.records[userID], scanID)
	return nil
}

func (f *fakeScanRepo) DeleteAll(ctx context.Context, userID string) error {
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	delete(f.records, userID)
	return nil
}

const fakeBlobBaseURL = "https://blobs.test/scan-bucket/"

type fakeBlobStorage struct {
	objects map[string][]byte
	deleted []string

	uploadErr error
	failKeys  map[string]bool
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{
		objects:  make(map[string][]byte),
		failKeys: make(map[string]bool),
	}
}

func (f *fakeBlobStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[key] = data
	return fakeBlobBaseURL + key, nil
}

func (f *fakeBlobStorage) Delete(ctx context.Context, key string) error {
	if f.failKeys[key] {
		return fmt.Errorf("delete rejected for %s", key)
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobStorage) KeyForURL(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, fakeBlobBaseURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func seedUser(repo *fakeUserRepo, id, username, email, passwordHash string) types.User {
	user := types.User{
		ID:                 id,
		Username:           username,
		Email:              email,
		PasswordHash:       passwordHash,
		DateOfRegistration: time.Now().UTC(),
	}
	repo.users[id] = user
	return user
}
