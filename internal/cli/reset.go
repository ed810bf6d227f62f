package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/security"
	"github.com/terraincognita07/fastlog/internal/storage"
)

const (
	temporaryPasswordLength   = 12
	temporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

type PasswordResetter interface {
	ResetPassword(ctx context.Context, username string, newPassword string) (models.User, error)
}

type ResetPasswordOptions struct {
	Username string
	// Prompt asks for the new password instead of generating a temporary one.
	Prompt bool
	In     io.Reader
	Out    io.Writer
}

func RunResetPasswordCommand(ctx context.Context, resetter PasswordResetter, options ResetPasswordOptions) error {
	username := strings.TrimSpace(options.Username)
	if username == "" {
		return errors.New("username is required")
	}
	if options.Out == nil {
		options.Out = io.Discard
	}

	var (
		password string
		err      error
	)
	if options.Prompt {
		password, err = promptNewPassword(options.In, options.Out)
	} else {
		password, err = generateTemporaryPassword(temporaryPasswordLength)
	}
	if err != nil {
		return err
	}

	user, err := resetter.ResetPassword(ctx, username, password)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user %s not found", strings.ToLower(username))
		}
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(options.Out, "Password reset for %s. All sessions were signed out.\n", user.Username)
	if !options.Prompt {
		fmt.Fprintf(options.Out, "Temporary password: %s\n", password)
	}
	return nil
}

func promptNewPassword(in io.Reader, out io.Writer) (string, error) {
	prompt := newPasswordPrompt(in)

	password, err := prompt.read(out, "New password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}

	confirmation, err := prompt.read(out, "Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if confirmation != password {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	return security.RandomString(length, temporaryPasswordAlphabet)
}
