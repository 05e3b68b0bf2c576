package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"jaryo/logger"
	"jaryo/models"
	"jaryo/repositories"
	"jaryo/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttachmentStream is an open attachment blob ready to be served.
type AttachmentStream struct {
	Attachment   models.Attachment
	Object       storage.Object
	Info         storage.Info
	ContentType  string
	DownloadName string
}

type AttachmentService interface {
	Add(ctx context.Context, tx *gorm.DB, fileID string, attachment *models.Attachment) error
	List(ctx context.Context, fileID string) ([]models.Attachment, error)
	Delete(ctx context.Context, fileID string, attachmentID uint) error
	Open(ctx context.Context, fileID string, attachmentID uint) (AttachmentStream, error)
	OpenThumbnail(ctx context.Context, fileID string, attachmentID uint) (AttachmentStream, error)
	WriteArchive(ctx context.Context, fileID string, w io.Writer) error
	ArchiveName(ctx context.Context, fileID string) (string, error)
}

type attachmentService struct {
	files       repositories.FileRepository
	attachments repositories.AttachmentRepository
	blobs       storage.BlobStore
	manager     *blobManager
}

func NewAttachmentService(
	files repositories.FileRepository,
	attachments repositories.AttachmentRepository,
	blobs storage.BlobStore,
	manager *blobManager,
) AttachmentService {
	return &attachmentService{
		files:       files,
		attachments: attachments,
		blobs:       blobs,
		manager:     manager,
	}
}

func (s *attachmentService) Add(ctx context.Context, tx *gorm.DB, fileID string, attachment *models.Attachment) error {
	attachment.ID = 0
	attachment.FileID = fileID
	if err := s.attachments.Create(ctx, tx, attachment); err != nil {
		return newAppError(KindInternal, "failed to save attachment", err)
	}
	return nil
}

func (s *attachmentService) List(ctx context.Context, fileID string) ([]models.Attachment, error) {
	if err := s.ensureFile(ctx, fileID); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByFile(ctx, nil, fileID)
	if err != nil {
		return nil, newAppError(KindInternal, "failed to list attachments", err)
	}
	return attachments, nil
}

func (s *attachmentService) Delete(ctx context.Context, fileID string, attachmentID uint) error {
	attachment, err := s.lookup(ctx, fileID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.manager.remove(ctx, attachment); err != nil {
		return newAppError(KindStorage, "failed to delete attachment", err)
	}
	if err := s.attachments.DeleteByIDs(ctx, nil, []uint{attachment.ID}); err != nil {
		return newAppError(KindInternal, "failed to delete attachment", err)
	}
	return nil
}

func (s *attachmentService) Open(ctx context.Context, fileID string, attachmentID uint) (AttachmentStream, error) {
	attachment, err := s.lookup(ctx, fileID, attachmentID)
	if err != nil {
		return AttachmentStream{}, err
	}
	return s.open(ctx, attachment, attachment.StoragePath, attachment.MimeType, attachment.OriginalName)
}

func (s *attachmentService) OpenThumbnail(ctx context.Context, fileID string, attachmentID uint) (AttachmentStream, error) {
	attachment, err := s.lookup(ctx, fileID, attachmentID)
	if err != nil {
		return AttachmentStream{}, err
	}
	if attachment.ThumbnailPath == "" {
		return AttachmentStream{}, newAppError(KindNotFound, "thumbnail not found", nil)
	}
	name := strings.TrimSuffix(attachment.OriginalName, filepath.Ext(attachment.OriginalName)) + "_thumb.jpg"
	return s.open(ctx, attachment, attachment.ThumbnailPath, "image/jpeg", name)
}

func (s *attachmentService) open(ctx context.Context, attachment models.Attachment, key string, contentType string, name string) (AttachmentStream, error) {
	obj, info, err := s.blobs.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Warn("attachment row points at a missing blob",
			zap.String("file_id", attachment.FileID),
			zap.Uint("attachment_id", attachment.ID))
		return AttachmentStream{}, newAppError(KindNotFound, "file not found on storage", nil)
	}
	if err != nil {
		return AttachmentStream{}, newAppError(KindStorage, "failed to open attachment", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return AttachmentStream{
		Attachment:   attachment,
		Object:       obj,
		Info:         info,
		ContentType:  contentType,
		DownloadName: name,
	}, nil
}

func (s *attachmentService) ArchiveName(ctx context.Context, fileID string) (string, error) {
	file, err := s.files.GetByID(ctx, nil, fileID, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", newAppError(KindNotFound, "file not found", nil)
	}
	if err != nil {
		return "", newAppError(KindInternal, "failed to load file", err)
	}
	title := sanitizeFilename(file.Title)
	return title + ".zip", nil
}

// WriteArchive streams every attachment of a record as a zip. Blobs missing from
// storage are skipped.
func (s *attachmentService) WriteArchive(ctx context.Context, fileID string, w io.Writer) error {
	attachments, err := s.List(ctx, fileID)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		return newAppError(KindNotFound, "no attachments", nil)
	}

	archive := zip.NewWriter(w)
	used := make(map[string]int, len(attachments))
	for _, attachment := range attachments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.addToArchive(ctx, archive, attachment, used); err != nil {
			return err
		}
	}
	return archive.Close()
}

func (s *attachmentService) addToArchive(ctx context.Context, archive *zip.Writer, attachment models.Attachment, used map[string]int) error {
	obj, info, err := s.blobs.Open(ctx, attachment.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Warn("skipping missing blob in archive",
			zap.String("file_id", attachment.FileID),
			zap.Uint("attachment_id", attachment.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("open attachment %d: %w", attachment.ID, err)
	}
	defer obj.Close()

	header := &zip.FileHeader{
		Name:     archiveEntryName(attachment.OriginalName, used),
		Method:   zip.Deflate,
		Modified: info.ModTime,
	}
	entry, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, obj)
	return err
}

func archiveEntryName(name string, used map[string]int) string {
	name = sanitizeFilename(name)
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	if _, taken := used[candidate]; taken {
		return archiveEntryName(candidate, used)
	}
	used[candidate] = 1
	return candidate
}

func (s *attachmentService) lookup(ctx context.Context, fileID string, attachmentID uint) (models.Attachment, error) {
	attachment, err := s.attachments.GetByIDAndFile(ctx, nil, attachmentID, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Attachment{}, newAppError(KindNotFound, "attachment not found", nil)
	}
	if err != nil {
		return models.Attachment{}, newAppError(KindInternal, "failed to load attachment", err)
	}
	return attachment, nil
}

func (s *attachmentService) ensureFile(ctx context.Context, fileID string) error {
	_, err := s.files.GetByID(ctx, nil, fileID, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newAppError(KindNotFound, "file not found", nil)
	}
	if err != nil {
		return newAppError(KindInternal, "failed to load file", err)
	}
	return nil
}
