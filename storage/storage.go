package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// Object is a seekable blob reader; callers must Close it.
type Object interface {
	io.ReadSeeker
	io.Closer
}

type Info struct {
	Size    int64
	ModTime time.Time
}

// BlobStore holds attachment bytes under slash-separated relative keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, key string) (Object, Info, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes key and rejects absolute or parent-escaping keys.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
