package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	defaultScryptN      = 16384
	defaultScryptR      = 8
	defaultScryptP      = 1
	defaultScryptKeyLen = 64
	passwordSaltBytes   = 16
)

var ErrMalformedPasswordHash = errors.New("malformed password hash")

// PasswordHasher derives scrypt keys and stores them as "hex(key).salt". The
// salt is the hex string itself, not its decoded bytes.
type PasswordHasher struct {
	N      int
	R      int
	P      int
	KeyLen int
}

func DefaultPasswordHasher() PasswordHasher {
	return PasswordHasher{
		N:      defaultScryptN,
		R:      defaultScryptR,
		P:      defaultScryptP,
		KeyLen: defaultScryptKeyLen,
	}
}

func (hasher PasswordHasher) Hash(password string) (string, error) {
	saltBytes := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("generate password salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	key, err := hasher.derive(password, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + "." + salt, nil
}

// Compare reports whether password matches stored. A malformed stored value
// never matches.
func (hasher PasswordHasher) Compare(stored string, password string) (bool, error) {
	encodedKey, salt, found := strings.Cut(stored, ".")
	if !found || encodedKey == "" || salt == "" {
		return false, ErrMalformedPasswordHash
	}
	expected, err := hex.DecodeString(encodedKey)
	if err != nil {
		return false, ErrMalformedPasswordHash
	}

	key, err := hasher.derive(password, salt)
	if err != nil {
		return false, err
	}
	if len(key) != len(expected) {
		return false, nil
	}
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func (hasher PasswordHasher) derive(password string, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), hasher.N, hasher.R, hasher.P, hasher.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive password key: %w", err)
	}
	return key, nil
}
