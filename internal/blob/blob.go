// Package blob stores uploaded avatar images behind a small put/get/delete
// contract. Callers only ever see refs of the form /uploads/<key>.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// RefPrefix is the public path under which blobs are served.
const RefPrefix = "/uploads/"

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidRef = errors.New("invalid blob ref")
)

var extensionsByContentType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Object is an opened blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Store interface {
	// Put persists body under a fresh key and returns its ref.
	Put(ctx context.Context, contentType string, body io.Reader, size int64) (string, error)
	Get(ctx context.Context, ref string) (Object, error)
	Delete(ctx context.Context, ref string) error
}

// SupportedContentType reports whether contentType is an accepted image type.
func SupportedContentType(contentType string) bool {
	_, ok := extensionsByContentType[contentType]
	return ok
}

func newObjectKey(contentType string) (string, error) {
	extension, ok := extensionsByContentType[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return uuid.NewString() + extension, nil
}

func refForKey(key string) string {
	return RefPrefix + key
}

// KeyFromRef extracts the object key and rejects anything that could escape
// the blob namespace.
func KeyFromRef(ref string) (string, error) {
	key, found := strings.CutPrefix(ref, RefPrefix)
	if !found {
		return "", ErrInvalidRef
	}
	// Dot-prefixed names are reserved for in-flight temp files.
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) || path.Base(key) != key {
		return "", ErrInvalidRef
	}
	return key, nil
}

func contentTypeForKey(key string) string {
	extension := strings.ToLower(path.Ext(key))
	for contentType, candidate := range extensionsByContentType {
		if candidate == extension {
			return contentType
		}
	}
	return "application/octet-stream"
}
