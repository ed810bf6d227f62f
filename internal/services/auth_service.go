package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/fastlog/internal/blob"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/security"
	"github.com/terraincognita07/fastlog/internal/storage"
)

const (
	DefaultSessionTTL     = 24 * time.Hour
	DefaultAvatarMaxBytes = 5 << 20

	sniffLength = 512
)

type AuthUserStore interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored string, password string) (bool, error)
}

type AuthOptions struct {
	Hasher         PasswordHasher
	SessionTTL     time.Duration
	AvatarMaxBytes int64
	Logger         *slog.Logger
}

type AvatarUpload struct {
	Body io.Reader
}

type RegistrationInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	City      string
	State     string
	Country   string
	Avatar    *AvatarUpload
}

// IssuedSession carries the raw token for the client cookie. Only its hash
// is stored.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users          AuthUserStore
	sessions       storage.SessionStore
	blobs          blob.Store
	hasher         PasswordHasher
	sessionTTL     time.Duration
	avatarMaxBytes int64
	logger         *slog.Logger
	now            func() time.Time

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewAuthService(users AuthUserStore, sessions storage.SessionStore, blobs blob.Store, options AuthOptions) *AuthService {
	service := &AuthService{
		users:          users,
		sessions:       sessions,
		blobs:          blobs,
		hasher:         options.Hasher,
		sessionTTL:     options.SessionTTL,
		avatarMaxBytes: options.AvatarMaxBytes,
		logger:         options.Logger,
		now:            time.Now,
	}
	if service.hasher == nil {
		service.hasher = security.DefaultPasswordHasher()
	}
	if service.sessionTTL <= 0 {
		service.sessionTTL = DefaultSessionTTL
	}
	if service.avatarMaxBytes <= 0 {
		service.avatarMaxBytes = DefaultAvatarMaxBytes
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	return service
}

func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (service *AuthService) Register(ctx context.Context, input RegistrationInput) (models.User, IssuedSession, error) {
	user, err := normalizeRegistration(input)
	if err != nil {
		return models.User{}, IssuedSession{}, err
	}

	if _, err := service.users.GetUserByUsername(ctx, user.Username); err == nil {
		return models.User{}, IssuedSession{}, ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, IssuedSession{}, fmt.Errorf("check username: %w", err)
	}

	avatar, contentType, err := service.readAvatar(input.Avatar)
	if err != nil {
		return models.User{}, IssuedSession{}, err
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, IssuedSession{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash

	avatarRef, err := service.blobs.Put(ctx, contentType, bytes.NewReader(avatar), int64(len(avatar)))
	if err != nil {
		return models.User{}, IssuedSession{}, fmt.Errorf("store avatar: %w", err)
	}
	user.AvatarRef = avatarRef
	user.CreatedAt = service.now().UTC()

	if err := service.users.CreateUser(ctx, &user); err != nil {
		service.discardAvatar(ctx, avatarRef)
		if errors.Is(err, storage.ErrConflict) {
			return models.User{}, IssuedSession{}, ErrDuplicateUsername
		}
		return models.User{}, IssuedSession{}, fmt.Errorf("create user: %w", err)
	}

	session, err := service.issueSession(ctx, user.ID)
	if err != nil {
		return models.User{}, IssuedSession{}, err
	}
	return user, session, nil
}

func normalizeRegistration(input RegistrationInput) (models.User, error) {
	user := models.User{
		Username:  NormalizeUsername(input.Username),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		City:      strings.TrimSpace(input.City),
		State:     strings.TrimSpace(input.State),
		Country:   strings.TrimSpace(input.Country),
	}

	required := []struct {
		field string
		value string
	}{
		{field: "username", value: user.Username},
		{field: "password", value: input.Password},
		{field: "firstName", value: user.FirstName},
		{field: "lastName", value: user.LastName},
		{field: "city", value: user.City},
		{field: "state", value: user.State},
		{field: "country", value: user.Country},
	}
	for _, candidate := range required {
		if strings.TrimSpace(candidate.value) == "" {
			return models.User{}, newValidationError(ErrMissingField, candidate.field, candidate.field+" is required")
		}
	}
	return user, nil
}

// readAvatar buffers the upload, enforces the size limit and sniffs the
// image type from its first bytes.
func (service *AuthService) readAvatar(upload *AvatarUpload) ([]byte, string, error) {
	if upload == nil || upload.Body == nil {
		return nil, "", newValidationError(ErrInvalidAvatar, "avatar", "avatar is required")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, service.avatarMaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return nil, "", newValidationError(ErrInvalidAvatar, "avatar", "avatar is required")
	}
	if int64(len(data)) > service.avatarMaxBytes {
		return nil, "", newValidationError(ErrInvalidAvatar, "avatar", fmt.Sprintf("avatar must be at most %d bytes", service.avatarMaxBytes))
	}

	contentType := http.DetectContentType(data[:min(len(data), sniffLength)])
	if !blob.SupportedContentType(contentType) {
		return nil, "", newValidationError(ErrInvalidAvatar, "avatar", "avatar must be a png, jpeg, gif or webp image")
	}
	return data, contentType, nil
}

func (service *AuthService) discardAvatar(ctx context.Context, ref string) {
	if err := service.blobs.Delete(ctx, ref); err != nil {
		service.logger.Warn("discard avatar failed", "ref", ref, "error", err)
	}
}

// Login answers ErrInvalidCredentials for both unknown users and wrong
// passwords, and spends the same hashing work on either path.
func (service *AuthService) Login(ctx context.Context, username string, password string) (models.User, IssuedSession, error) {
	normalized := NormalizeUsername(username)
	if normalized == "" || password == "" {
		return models.User{}, IssuedSession{}, ErrInvalidCredentials
	}

	user, err := service.users.GetUserByUsername(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		_, _ = service.hasher.Compare(service.fallbackHash(), password)
		return models.User{}, IssuedSession{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, IssuedSession{}, fmt.Errorf("load user: %w", err)
	}

	matches, err := service.hasher.Compare(user.PasswordHash, password)
	if err != nil && !errors.Is(err, security.ErrMalformedPasswordHash) {
		return models.User{}, IssuedSession{}, fmt.Errorf("compare password: %w", err)
	}
	if !matches {
		return models.User{}, IssuedSession{}, ErrInvalidCredentials
	}

	session, err := service.issueSession(ctx, user.ID)
	if err != nil {
		return models.User{}, IssuedSession{}, err
	}
	return user, session, nil
}

func (service *AuthService) fallbackHash() string {
	service.dummyHashOnce.Do(func() {
		hash, err := service.hasher.Hash("fastlog-unknown-user")
		if err != nil {
			service.logger.Error("build fallback password hash failed", "error", err)
			return
		}
		service.dummyHash = hash
	})
	return service.dummyHash
}

func (service *AuthService) issueSession(ctx context.Context, userID uint) (IssuedSession, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return IssuedSession{}, fmt.Errorf("generate session token: %w", err)
	}

	now := service.now().UTC()
	session := models.Session{
		ID:        security.HashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(service.sessionTTL),
		CreatedAt: now,
	}
	if err := service.sessions.CreateSession(ctx, session); err != nil {
		return IssuedSession{}, fmt.Errorf("create session: %w", err)
	}
	return IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (service *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := service.sessions.DeleteSession(ctx, security.HashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves a session token. Expired or orphaned sessions are
// removed on the way out.
func (service *AuthService) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrAuthenticationRequired
	}

	sessionID := security.HashToken(token)
	session, err := service.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, ErrAuthenticationRequired
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(service.now()) {
		service.dropSession(ctx, sessionID)
		return models.User{}, ErrAuthenticationRequired
	}

	user, err := service.users.GetUser(ctx, session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		service.dropSession(ctx, sessionID)
		return models.User{}, ErrAuthenticationRequired
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (service *AuthService) dropSession(ctx context.Context, sessionID string) {
	if err := service.sessions.DeleteSession(ctx, sessionID); err != nil {
		service.logger.Warn("delete stale session failed", "error", err)
	}
}

// ResetPassword replaces the password hash and signs the user out everywhere.
func (service *AuthService) ResetPassword(ctx context.Context, username string, newPassword string) (models.User, error) {
	normalized := NormalizeUsername(username)
	if normalized == "" {
		return models.User{}, newValidationError(ErrMissingField, "username", "username is required")
	}
	if strings.TrimSpace(newPassword) == "" {
		return models.User{}, newValidationError(ErrMissingField, "password", "password is required")
	}

	user, err := service.users.GetUserByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, fmt.Errorf("user %s: %w", normalized, err)
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	passwordHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return models.User{}, fmt.Errorf("update password: %w", err)
	}
	if err := service.sessions.DeleteUserSessions(ctx, user.ID); err != nil {
		return models.User{}, fmt.Errorf("revoke sessions: %w", err)
	}
	user.PasswordHash = passwordHash
	return user, nil
}
