package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terraincognita07/fastlog/internal/blob"
	"github.com/terraincognita07/fastlog/internal/metrics"
	"github.com/terraincognita07/fastlog/internal/security"
	"github.com/terraincognita07/fastlog/internal/services"
)

const (
	defaultLoginAttemptLimit  = 10
	defaultLoginAttemptWindow = 15 * time.Minute
	defaultAvatarMaxBytes     = services.DefaultAvatarMaxBytes
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Auth    *services.AuthService
	Fasts   *services.FastService
	Meals   *services.MealService
	Blobs   blob.Store
	Health  Pinger
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Options struct {
	SecretKey          []byte
	CookieSecure       bool
	LoginAttemptLimit  int
	LoginAttemptWindow time.Duration
	AvatarMaxBytes     int64
}

type Handler struct {
	auth    *services.AuthService
	fasts   *services.FastService
	meals   *services.MealService
	blobs   blob.Store
	health  Pinger
	metrics *metrics.Metrics
	logger  *slog.Logger

	cookies            *security.CookieSealer
	cookieSecure       bool
	loginLimiter       *attemptLimiter
	loginAttemptLimit  int
	loginAttemptWindow time.Duration
	avatarMaxBytes     int64
}

func NewHandler(deps Dependencies, options Options) (*Handler, error) {
	if deps.Auth == nil || deps.Fasts == nil || deps.Meals == nil {
		return nil, errors.New("auth, fast and meal services are required")
	}
	if deps.Blobs == nil {
		return nil, errors.New("blob store is required")
	}

	sealer, err := security.NewCookieSealer(options.SecretKey)
	if err != nil {
		return nil, err
	}

	handler := &Handler{
		auth:               deps.Auth,
		fasts:              deps.Fasts,
		meals:              deps.Meals,
		blobs:              deps.Blobs,
		health:             deps.Health,
		metrics:            deps.Metrics,
		logger:             deps.Logger,
		cookies:            sealer,
		cookieSecure:       options.CookieSecure,
		loginLimiter:       newAttemptLimiter(),
		loginAttemptLimit:  options.LoginAttemptLimit,
		loginAttemptWindow: options.LoginAttemptWindow,
		avatarMaxBytes:     options.AvatarMaxBytes,
	}
	if handler.logger == nil {
		handler.logger = slog.Default()
	}
	if handler.loginAttemptLimit <= 0 {
		handler.loginAttemptLimit = defaultLoginAttemptLimit
	}
	if handler.loginAttemptWindow <= 0 {
		handler.loginAttemptWindow = defaultLoginAttemptWindow
	}
	if handler.avatarMaxBytes <= 0 {
		handler.avatarMaxBytes = defaultAvatarMaxBytes
	}
	return handler, nil
}

type loginInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type endFastInput struct {
	Note *string `json:"note" form:"note"`
}

type logMealInput struct {
	Description string `json:"description" form:"description"`
}
