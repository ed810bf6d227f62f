package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs as files in a single directory.
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (store *LocalStore) Put(ctx context.Context, contentType string, body io.Reader, _ int64) (string, error) {
	key, err := newObjectKey(contentType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	temp, err := os.CreateTemp(store.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tempPath := temp.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := io.Copy(temp, body); err != nil {
		_ = temp.Close()
		cleanup()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := temp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tempPath, filepath.Join(store.dir, key)); err != nil {
		cleanup()
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return refForKey(key), nil
}

func (store *LocalStore) Get(_ context.Context, ref string) (Object, error) {
	key, err := KeyFromRef(ref)
	if err != nil {
		return Object{}, err
	}

	file, err := os.Open(filepath.Join(store.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("open blob: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return Object{}, fmt.Errorf("stat blob: %w", err)
	}
	return Object{Body: file, ContentType: contentTypeForKey(key), Size: info.Size()}, nil
}

func (store *LocalStore) Delete(_ context.Context, ref string) error {
	key, err := KeyFromRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(store.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
