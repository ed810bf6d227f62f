package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	sealedCookieVersion   = "v1"
	sealedCookieAADPrefix = "fastlog.cookie."
	sealedCookieKeyLabel  = "fastlog.cookie-sealer.v1"
)

var ErrInvalidSealedValue = errors.New("invalid sealed cookie value")

// CookieSealer encrypts and authenticates cookie values with AES-GCM. The
// purpose string is bound as additional data so a value sealed for one
// cookie cannot be replayed as another.
type CookieSealer struct {
	aead cipher.AEAD
}

func NewCookieSealer(secretKey []byte) (*CookieSealer, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("cookie sealer secret key is required")
	}

	derivedKey := deriveCookieKey(secretKey)
	block, err := aes.NewCipher(derivedKey[:])
	if err != nil {
		return nil, fmt.Errorf("init cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init cookie aead: %w", err)
	}
	return &CookieSealer{aead: aead}, nil
}

func deriveCookieKey(secretKey []byte) [32]byte {
	material := make([]byte, 0, len(sealedCookieKeyLabel)+len(secretKey))
	material = append(material, sealedCookieKeyLabel...)
	material = append(material, secretKey...)
	return sha256.Sum256(material)
}

func (sealer *CookieSealer) Seal(purpose string, plaintext []byte) (string, error) {
	aad, err := sealer.additionalData(purpose)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, sealer.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate cookie nonce: %w", err)
	}

	payload := sealer.aead.Seal(nonce, nonce, plaintext, aad)
	return sealedCookieVersion + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func (sealer *CookieSealer) Open(purpose string, rawValue string) ([]byte, error) {
	aad, err := sealer.additionalData(purpose)
	if err != nil {
		return nil, err
	}

	version, encodedPayload, found := strings.Cut(strings.TrimSpace(rawValue), ".")
	if !found || version != sealedCookieVersion || encodedPayload == "" {
		return nil, ErrInvalidSealedValue
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, ErrInvalidSealedValue
	}

	nonceSize := sealer.aead.NonceSize()
	if len(payload) <= nonceSize {
		return nil, ErrInvalidSealedValue
	}
	plaintext, err := sealer.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], aad)
	if err != nil {
		return nil, ErrInvalidSealedValue
	}
	return plaintext, nil
}

func (sealer *CookieSealer) additionalData(purpose string) ([]byte, error) {
	if sealer == nil || sealer.aead == nil {
		return nil, errors.New("cookie sealer is not initialized")
	}
	trimmedPurpose := strings.TrimSpace(purpose)
	if trimmedPurpose == "" {
		return nil, errors.New("cookie purpose is required")
	}
	return []byte(sealedCookieAADPrefix + trimmedPurpose), nil
}
