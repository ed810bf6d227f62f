package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/blob"
	"github.com/terraincognita07/fastlog/internal/db"
	"github.com/terraincognita07/fastlog/internal/memstore"
	"github.com/terraincognita07/fastlog/internal/metrics"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/security"
	"github.com/terraincognita07/fastlog/internal/services"
	"github.com/terraincognita07/fastlog/internal/storage"
)

var (
	testSecretKey = []byte("fastlog-test-secret-key-0123456789abcdef")
	pngAvatar     = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRtest-avatar")
)

type countingSessions struct {
	storage.SessionStore
	created atomic.Int32
}

func (sessions *countingSessions) CreateSession(ctx context.Context, session models.Session) error {
	if err := sessions.SessionStore.CreateSession(ctx, session); err != nil {
		return err
	}
	sessions.created.Add(1)
	return nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is gone") }

type apiFixture struct {
	app      *fiber.App
	handler  *Handler
	store    storage.Store
	sessions *countingSessions
	metrics  *metrics.Metrics
	blobDir  string
}

func newAPIFixture(t *testing.T, store storage.Store, options Options) *apiFixture {
	t.Helper()

	blobDir := t.TempDir()
	blobs, err := blob.NewLocalStore(blobDir)
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	sessions := &countingSessions{SessionStore: store.Sessions()}
	registry := metrics.New()
	activity := services.NewActivityRecorder(nil, registry, nil)
	auth := services.NewAuthService(store, sessions, blobs, services.AuthOptions{
		Hasher: security.PasswordHasher{N: 1024, R: 8, P: 1, KeyLen: 64},
	})
	fasts := services.NewFastService(store, activity)
	meals := services.NewMealService(store, fasts, activity)

	if options.SecretKey == nil {
		options.SecretKey = testSecretKey
	}
	handler, err := NewHandler(Dependencies{
		Auth:    auth,
		Fasts:   fasts,
		Meals:   meals,
		Blobs:   blobs,
		Health:  store,
		Metrics: registry,
	}, options)
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}

	return &apiFixture{
		app:      NewApp(handler, AppConfig{}),
		handler:  handler,
		store:    store,
		sessions: sessions,
		metrics:  registry,
		blobDir:  blobDir,
	}
}

func newMemoryAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIFixture(t, memstore.New(), Options{})
}

func newSQLiteAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "fastlog.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := db.NewStore(database)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return newAPIFixture(t, store, Options{})
}

func (fixture *apiFixture) do(t *testing.T, request *http.Request) *http.Response {
	t.Helper()

	response, err := fixture.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func (fixture *apiFixture) doJSON(t *testing.T, method string, path string, cookie string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}
	return fixture.do(t, request)
}

func registrationFields(username string, password string) map[string]string {
	return map[string]string{
		"username":  username,
		"password":  password,
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"city":      "London",
		"state":     "Greater London",
		"country":   "UK",
	}
}

func (fixture *apiFixture) register(t *testing.T, fields map[string]string, avatar []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if avatar != nil {
		part, err := writer.CreateFormFile(avatarFormField, "avatar.png")
		if err != nil {
			t.Fatalf("create avatar part: %v", err)
		}
		if _, err := part.Write(avatar); err != nil {
			t.Fatalf("write avatar part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/register", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return fixture.do(t, request)
}

// registerUser registers username and returns the session cookie header.
func (fixture *apiFixture) registerUser(t *testing.T, username string) (models.User, string) {
	t.Helper()

	response := fixture.register(t, registrationFields(username, "correct horse battery"), pngAvatar)
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", username, response.StatusCode)
	}
	user := decodeJSON[models.User](t, response.Body)
	return user, sessionCookieHeader(t, response)
}

func sessionCookieHeader(t *testing.T, response *http.Response) string {
	t.Helper()

	cookie := responseCookie(response.Cookies(), sessionCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected %s cookie in response", sessionCookieName)
	}
	return cookie.Name + "=" + cookie.Value
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeJSON[T any](t *testing.T, body io.Reader) T {
	t.Helper()

	var value T
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return value
}

func readAPIError(t *testing.T, body io.Reader) string {
	t.Helper()
	return decodeJSON[map[string]string](t, body)["message"]
}

func expectStatus(t *testing.T, response *http.Response, expected int) {
	t.Helper()

	if response.StatusCode != expected {
		payload, _ := io.ReadAll(response.Body)
		t.Fatalf("%s %s: expected status %d, got %d: %s",
			response.Request.Method, response.Request.URL.Path, expected, response.StatusCode, strings.TrimSpace(string(payload)))
	}
}
