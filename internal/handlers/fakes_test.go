package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fruitscan/apiserver/internal/logging"
	"github.com/fruitscan/apiserver/internal/services"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

// --- test doubles ---

type fakeUserRepo struct {
	users map[string]types.User
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
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, fields map[string]any) error {
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
	delete(f.records, userID)
	return nil
}

const fakeBlobBaseURL = "https://blobs.test/scan-bucket/"

type fakeBlobStorage struct {
	objects  map[string][]byte
	failKeys map[string]bool
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{
		objects:  make(map[string][]byte),
		failKeys: make(map[string]bool),
	}
}

func (f *fakeBlobStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.objects[key] = data
	return fakeBlobBaseURL + key, nil
}

func (f *fakeBlobStorage) Delete(ctx context.Context, key string) error {
	if f.failKeys[key] {
		return fmt.Errorf("delete rejected for %s", key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStorage) KeyForURL(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, fakeBlobBaseURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// --- test environment ---

type testEnv struct {
	router *chi.Mux
	users  *fakeUserRepo
	scans  *fakeScanRepo
	blobs  *fakeBlobStorage
}

// newTestEnv wires the routes the way the server does, over fakes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	scans := newFakeScanRepo()
	blobs := newFakeBlobStorage()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	userService := services.NewUserService(users, blobs, log, bcrypt.MinCost)
	scanService := services.NewScanService(users, scans, blobs, log)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	AuthRouter(router, userService, testJWTSecret, time.Hour)
	router.Route("/user", func(r chi.Router) {
		r.Use(RequireAuth(testJWTSecret))
		UserRouter(r, userService)
		r.Route("/scan-result-history", func(r chi.Router) {
			ScanRouter(r, scanService)
		})
	})

	return &testEnv{router: router, users: users, scans: scans, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return e.do(t, method, path, token, bytes.NewReader(body), "application/json")
}

// register creates a user through the API and returns its generated ID.
func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp RegisterResponse
	decodeBody(t, rec, &resp)
	return resp.UserID
}

// login authenticates through the API and returns the session token.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// multipartBody builds a multipart form with the given file field and values.
func multipartBody(t *testing.T, fileField, filename string, fileData []byte, values map[string]string) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range values {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}
