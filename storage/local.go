package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{"files", "thumbnails"} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return &LocalStore{basePath: abs}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (int64, error) {
	absPath, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return 0, err
	}

	partPath := absPath + ".part"
	dst, err := os.Create(partPath)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(dst, contextReader{ctx: ctx, r: r})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(partPath)
		return 0, err
	}
	if err := os.Rename(partPath, absPath); err != nil {
		_ = os.Remove(partPath)
		return 0, err
	}
	return written, nil
}

func (s *LocalStore) Open(_ context.Context, key string) (Object, Info, error) {
	absPath, err := s.resolve(key)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Info{}, ErrNotFound
	}
	if err != nil {
		return nil, Info{}, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, Info{}, ErrNotFound
	}
	return f, Info{Size: st.Size(), ModTime: st.ModTime()}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	absPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
