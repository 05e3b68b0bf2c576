package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"

	"jaryo/config"
	"jaryo/models"
	"jaryo/repositories"
	"jaryo/storage"
	"jaryo/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type testEnv struct {
	cfg      *config.Config
	db       *gorm.DB
	repos    repositories.Container
	blobs    *recordingStore
	signer   *utils.TokenSigner
	services *Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.BasePath = t.TempDir()
	cfg.Thumbnail.Width = 32
	cfg.Thumbnail.Height = 32

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jaryo.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.UserSession{}, &models.Category{}, &models.File{}, &models.Attachment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	local, err := storage.NewLocalStore(cfg.Storage.BasePath)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	signer, err := utils.NewTokenSigner("test-secret", cfg.JWT.Issuer)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	repos := repositories.NewGormRepositories(db, nil, "").BuildContainer()
	blobs := &recordingStore{BlobStore: local, failDelete: map[string]error{}}
	return &testEnv{
		cfg:      cfg,
		db:       db,
		repos:    repos,
		blobs:    blobs,
		signer:   signer,
		services: NewContainer(repos, blobs, signer, cfg),
	}
}

// recordingStore wraps a real store and injects delete failures per key.
type recordingStore struct {
	storage.BlobStore
	mu         sync.Mutex
	failPut    error
	failDelete map[string]error
	deleted    []string
}

func (s *recordingStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	s.mu.Lock()
	failPut := s.failPut
	s.mu.Unlock()
	if failPut != nil {
		return 0, failPut
	}
	return s.BlobStore.Put(ctx, key, r, size, contentType)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	err, fail := s.failDelete[key]
	s.mu.Unlock()
	if fail {
		return err
	}
	if err := s.BlobStore.Delete(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) exists(t *testing.T, key string) bool {
	t.Helper()
	obj, _, err := s.BlobStore.Open(context.Background(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		t.Fatalf("open %s: %v", key, err)
	}
	_ = obj.Close()
	return true
}

type upload struct {
	name    string
	content []byte
}

// multipartHeaders builds real *multipart.FileHeader values by parsing an encoded form.
func multipartHeaders(t *testing.T, uploads ...upload) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, u := range uploads {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+u.name+`"`)
		header.Set("Content-Type", "application/octet-stream")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(u.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if !IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
