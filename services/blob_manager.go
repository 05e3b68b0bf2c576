package services

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"jaryo/config"
	"jaryo/logger"
	"jaryo/metrics"
	"jaryo/models"
	"jaryo/storage"

	"go.uber.org/zap"
)

// blobManager moves upload bytes in and out of the blob store. Rows are not its concern.
type blobManager struct {
	blobs       storage.BlobStore
	thumbs      *thumbnailer
	upload      config.UploadConfig
	thumbsAllow bool
	now         func() time.Time
}

func newBlobManager(blobs storage.BlobStore, cfg *config.Config) *blobManager {
	return &blobManager{
		blobs:       blobs,
		thumbs:      &thumbnailer{blobs: blobs, cfg: cfg.Thumbnail},
		upload:      cfg.Upload,
		thumbsAllow: !cfg.Thumbnail.Disabled,
		now:         time.Now,
	}
}

func (m *blobManager) validate(headers []*multipart.FileHeader) error {
	if len(headers) > m.upload.MaxFiles {
		return newAppErrorWithData(KindValidation, "too many files", map[string]int{"max_files": m.upload.MaxFiles}, nil)
	}
	for _, header := range headers {
		name := displayName(decodeUploadName(header.Filename))
		if header.Size > m.upload.MaxFileSize {
			return newAppErrorWithData(KindValidation, "file is too large", map[string]interface{}{
				"file":          name,
				"max_file_size": m.upload.MaxFileSize,
			}, nil)
		}
		if !isFileExtensionAllowed(name, m.upload.AllowedExtensions) {
			return newAppErrorWithData(KindValidation, "file type is not allowed", map[string]string{"file": name}, nil)
		}
	}
	return nil
}

// store writes every upload; on failure the blobs already written are removed.
func (m *blobManager) store(ctx context.Context, headers []*multipart.FileHeader) ([]models.Attachment, error) {
	stored := make([]models.Attachment, 0, len(headers))
	for _, header := range headers {
		attachment, err := m.storeOne(ctx, header)
		if err != nil {
			m.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, attachment)
	}
	return stored, nil
}

func (m *blobManager) storeOne(ctx context.Context, header *multipart.FileHeader) (models.Attachment, error) {
	now := m.now()
	original := displayName(decodeUploadName(header.Filename))
	name := storedName(sanitizeFilename(original), now)
	key := blobKey("files", name, now)
	mimeType := detectMimeType(original, header.Header.Get("Content-Type"))

	src, err := header.Open()
	if err != nil {
		return models.Attachment{}, newAppError(KindStorage, "failed to read upload", err)
	}
	defer src.Close()

	written, err := m.blobs.Put(ctx, key, src, header.Size, mimeType)
	if err != nil {
		return models.Attachment{}, newAppError(KindStorage, "failed to store attachment", err)
	}
	metrics.UploadedFiles.Inc()
	metrics.UploadedBytes.Add(float64(written))

	attachment := models.Attachment{
		OriginalName: original,
		StoredName:   name,
		StoragePath:  key,
		FileSize:     written,
		MimeType:     mimeType,
	}

	if m.thumbsAllow && IsImageFile(original) {
		thumbKey := blobKey("thumbnails", strings.TrimSuffix(name, filepath.Ext(name))+"_thumb.jpg", now)
		if err := m.thumbs.Generate(ctx, key, thumbKey); err != nil {
			logger.Warn("thumbnail generation failed", zap.String("key", key), zap.Error(err))
		} else {
			attachment.ThumbnailPath = thumbKey
		}
	}
	return attachment, nil
}

// remove deletes an attachment's blob and thumbnail. A missing blob is not an error.
func (m *blobManager) remove(ctx context.Context, attachment models.Attachment) error {
	err := m.blobs.Delete(ctx, attachment.StoragePath)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Warn("attachment blob already missing",
			zap.Uint("attachment_id", attachment.ID),
			zap.String("file_id", attachment.FileID))
	case err != nil:
		metrics.BlobDeleteFailures.Inc()
		return err
	}

	if attachment.ThumbnailPath != "" {
		if err := m.blobs.Delete(ctx, attachment.ThumbnailPath); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("thumbnail removal failed", zap.Uint("attachment_id", attachment.ID), zap.Error(err))
		}
	}
	return nil
}

// discard is best-effort cleanup of blobs whose rows were never committed.
func (m *blobManager) discard(ctx context.Context, attachments []models.Attachment) {
	for _, attachment := range attachments {
		if err := m.remove(context.WithoutCancel(ctx), attachment); err != nil {
			logger.Error("orphan blob left behind", zap.String("key", attachment.StoragePath), zap.Error(err))
		}
	}
}
