package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/terraincognita07/fastlog/internal/api"
	"github.com/terraincognita07/fastlog/internal/cli"
	"github.com/terraincognita07/fastlog/internal/config"
	"github.com/terraincognita07/fastlog/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fastlog: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	command, rest := splitCommand(args)
	switch command {
	case "serve":
		return runServe(ctx, rest)
	case "reset-password":
		return runResetPassword(ctx, rest, stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q (want serve or reset-password)", command)
	}
}

// splitCommand defaults to serve so a bare `fastlog` starts the server.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "serve", args
	}
	return args[0], args[1:]
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	time.Local = cfg.Location()

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runServe(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := openDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if purged, err := deps.sessions.PurgeExpiredSessions(ctx, time.Now()); err != nil {
		logger.Warn("purge expired sessions failed", "error", err)
	} else if purged > 0 {
		logger.Info("purged expired sessions", "count", purged)
	}

	auth, fasts, meals := deps.services(cfg, logger)
	handler, err := api.NewHandler(api.Dependencies{
		Auth:    auth,
		Fasts:   fasts,
		Meals:   meals,
		Blobs:   deps.blobs,
		Health:  deps.store,
		Metrics: deps.metrics,
		Logger:  logger,
	}, api.Options{
		SecretKey:          []byte(cfg.SecretKey),
		CookieSecure:       cfg.IsProduction(),
		LoginAttemptLimit:  cfg.Login.AttemptLimit,
		LoginAttemptWindow: cfg.Login.AttemptWindow,
		AvatarMaxBytes:     cfg.Blob.AvatarMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := api.NewApp(handler, api.AppConfig{CORSAllowOrigins: cfg.CORSAllowOrigins})

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("fastlog listening",
		"addr", cfg.ListenAddr(),
		"storage", cfg.Storage.Driver,
		"sessions", cfg.Session.Backend,
		"blobs", cfg.Blob.Backend,
		"tz", time.Local.String(),
	)
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info("fastlog stopped")
	return nil
}

func runResetPassword(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	flags.SetOutput(stdout)
	username := flags.String("username", "", "user whose password is reset")
	prompt := flags.Bool("prompt", false, "read the new password from the terminal instead of generating one")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return errors.New("reset-password: -username is required")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == config.StorageMemory {
		return errors.New("reset-password needs a persistent STORAGE_DRIVER")
	}

	deps, err := openDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	auth, _, _ := deps.services(cfg, logger)
	return cli.RunResetPasswordCommand(ctx, auth, cli.ResetPasswordOptions{
		Username: *username,
		Prompt:   *prompt,
		In:       stdin,
		Out:      stdout,
	})
}
