package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"jaryo/config"
	"jaryo/logger"
	"jaryo/models"
	"jaryo/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ListFilesInput struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

type CreateFileInput struct {
	ID          string
	Title       string
	Description string
	Category    string
	Tags        []string
	UserID      string
}

// UpdateFileInput carries a partial update; nil fields are left unchanged.
type UpdateFileInput struct {
	Title         *string
	Description   *string
	Category      *string
	Tags          *[]string
	FilesToDelete []uint
}

type StatsOutput struct {
	TotalFiles       int64                  `json:"total_files"`
	TotalAttachments int64                  `json:"total_attachments"`
	ByCategory       []models.CategoryCount `json:"by_category"`
}

type FileService interface {
	List(ctx context.Context, in ListFilesInput) ([]models.File, error)
	Get(ctx context.Context, fileID string) (models.File, error)
	Create(ctx context.Context, in CreateFileInput, uploads []*multipart.FileHeader) (models.File, error)
	Update(ctx context.Context, fileID string, in UpdateFileInput, uploads []*multipart.FileHeader) (models.File, error)
	Delete(ctx context.Context, fileID string) error
	Stats(ctx context.Context) (StatsOutput, error)
}

type fileService struct {
	txManager   repositories.TxManager
	files       repositories.FileRepository
	attachments repositories.AttachmentRepository
	attachSvc   AttachmentService
	manager     *blobManager
	pagination  config.PaginationConfig
	now         func() time.Time
}

func NewFileService(
	txManager repositories.TxManager,
	files repositories.FileRepository,
	attachments repositories.AttachmentRepository,
	attachSvc AttachmentService,
	manager *blobManager,
	pagination config.PaginationConfig,
) FileService {
	return &fileService{
		txManager:   txManager,
		files:       files,
		attachments: attachments,
		attachSvc:   attachSvc,
		manager:     manager,
		pagination:  pagination,
		now:         time.Now,
	}
}

func (s *fileService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.pagination.DefaultLimit
	}
	if limit > s.pagination.MaxLimit {
		return s.pagination.MaxLimit
	}
	return limit
}

func (s *fileService) List(ctx context.Context, in ListFilesInput) ([]models.File, error) {
	limit := s.clampLimit(in.Limit)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	term := strings.TrimSpace(in.Search)
	category := strings.TrimSpace(in.Category)

	var (
		files []models.File
		err   error
	)
	if term != "" {
		files, err = s.files.Search(ctx, nil, repositories.SearchFilesInput{Term: term, Category: category, Limit: limit})
	} else {
		files, err = s.files.List(ctx, nil, repositories.ListFilesInput{Category: category, Offset: offset, Limit: limit})
	}
	if err != nil {
		return nil, newAppError(KindInternal, "failed to list files", err)
	}
	if files == nil {
		files = []models.File{}
	}
	return files, nil
}

func (s *fileService) Get(ctx context.Context, fileID string) (models.File, error) {
	file, err := s.files.GetByID(ctx, nil, fileID, true)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.File{}, newAppError(KindNotFound, "file not found", nil)
	}
	if err != nil {
		return models.File{}, newAppError(KindInternal, "failed to load file", err)
	}
	return file, nil
}

func (s *fileService) Create(ctx context.Context, in CreateFileInput, uploads []*multipart.FileHeader) (models.File, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	if title == "" || category == "" {
		return models.File{}, ValidationError("title and category are required")
	}
	if err := s.manager.validate(uploads); err != nil {
		return models.File{}, err
	}

	stored, err := s.manager.store(ctx, uploads)
	if err != nil {
		return models.File{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	file := models.File{
		ID:          id,
		Title:       title,
		Description: in.Description,
		Category:    category,
		Tags:        normalizeTags(in.Tags),
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.Create(ctx, tx, &file); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newAppError(KindDuplicate, "file id already exists", err)
			}
			return newAppError(KindInternal, "failed to save file", err)
		}
		for i := range stored {
			if err := s.attachSvc.Add(ctx, tx, file.ID, &stored[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.manager.discard(ctx, stored)
		return models.File{}, asAppError(err, "failed to save file")
	}

	logger.Info("file created",
		zap.String("file_id", file.ID),
		zap.String("user_id", file.UserID),
		zap.Int("attachments", len(stored)))
	return s.Get(ctx, file.ID)
}

func (s *fileService) Update(ctx context.Context, fileID string, in UpdateFileInput, uploads []*multipart.FileHeader) (models.File, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.File{}, ValidationError("title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return models.File{}, ValidationError("category cannot be empty")
		}
		updates["category"] = category
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		encoded, err := models.EncodeTags(tags)
		if err != nil {
			return models.File{}, newAppError(KindInternal, "failed to encode tags", err)
		}
		updates["tags"] = encoded
		updates["tag_text"] = models.TagSearchText(tags)
	}
	updates["updated_at"] = s.now()

	current, err := s.Get(ctx, fileID)
	if err != nil {
		return models.File{}, err
	}
	if err := s.manager.validate(uploads); err != nil {
		return models.File{}, err
	}

	removals := make([]models.Attachment, 0, len(in.FilesToDelete))
	for _, id := range in.FilesToDelete {
		for _, attachment := range current.Attachments {
			if attachment.ID == id {
				removals = append(removals, attachment)
			}
		}
	}

	stored, err := s.manager.store(ctx, uploads)
	if err != nil {
		return models.File{}, err
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		changed, err := s.files.UpdateByID(ctx, tx, fileID, updates)
		if err != nil {
			return newAppError(KindInternal, "failed to update file", err)
		}
		// MySQL reports 0 affected rows when the values are unchanged.
		if changed == 0 {
			if _, err := s.files.GetByID(ctx, tx, fileID, false); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return newAppError(KindNotFound, "file not found", nil)
				}
				return newAppError(KindInternal, "failed to update file", err)
			}
		}
		for i := range stored {
			if err := s.attachSvc.Add(ctx, tx, fileID, &stored[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.manager.discard(ctx, stored)
		return models.File{}, asAppError(err, "failed to update file")
	}

	for _, attachment := range removals {
		if err := s.attachSvc.Delete(ctx, fileID, attachment.ID); err != nil {
			logger.Warn("attachment removal during update failed",
				zap.String("file_id", fileID),
				zap.Uint("attachment_id", attachment.ID),
				zap.Error(err))
		}
	}

	return s.Get(ctx, fileID)
}

// Delete removes blobs before rows. When a blob cannot be removed, only the rows
// whose blobs are already gone are deleted and the record stays.
func (s *fileService) Delete(ctx context.Context, fileID string) error {
	file, err := s.Get(ctx, fileID)
	if err != nil {
		return err
	}

	removed := make([]uint, 0, len(file.Attachments))
	for _, attachment := range file.Attachments {
		if err := s.manager.remove(ctx, attachment); err != nil {
			if len(removed) > 0 {
				if derr := s.attachments.DeleteByIDs(ctx, nil, removed); derr != nil {
					logger.Error("failed to drop rows of removed blobs", zap.String("file_id", fileID), zap.Error(derr))
				}
			}
			return newAppError(KindStorage, "failed to delete attachment", err)
		}
		removed = append(removed, attachment.ID)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.attachments.DeleteByFile(ctx, tx, fileID); err != nil {
			return newAppError(KindInternal, "failed to delete attachments", err)
		}
		changed, err := s.files.DeleteByID(ctx, tx, fileID)
		if err != nil {
			return newAppError(KindInternal, "failed to delete file", err)
		}
		if changed == 0 {
			return newAppError(KindNotFound, "file not found", nil)
		}
		return nil
	})
	if err != nil {
		return asAppError(err, "failed to delete file")
	}

	logger.Info("file deleted", zap.String("file_id", fileID), zap.Int("attachments", len(removed)))
	return nil
}

func (s *fileService) Stats(ctx context.Context) (StatsOutput, error) {
	totalFiles, err := s.files.Count(ctx, nil)
	if err != nil {
		return StatsOutput{}, newAppError(KindInternal, "failed to count files", err)
	}
	totalAttachments, err := s.attachments.Count(ctx, nil)
	if err != nil {
		return StatsOutput{}, newAppError(KindInternal, "failed to count attachments", err)
	}
	byCategory, err := s.files.CountByCategory(ctx, nil)
	if err != nil {
		return StatsOutput{}, newAppError(KindInternal, "failed to count categories", err)
	}
	if byCategory == nil {
		byCategory = []models.CategoryCount{}
	}
	return StatsOutput{
		TotalFiles:       totalFiles,
		TotalAttachments: totalAttachments,
		ByCategory:       byCategory,
	}, nil
}

func asAppError(err error, message string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return newAppError(KindInternal, message, err)
}
