package repositories

import (
	"context"

	"jaryo/models"

	"gorm.io/gorm"
)

type GormAttachmentRepository struct {
	db *gorm.DB
}

func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(ctx context.Context, tx *gorm.DB, attachment *models.Attachment) error {
	return withCtx(ctx, r.db, tx).Create(attachment).Error
}

func (r *GormAttachmentRepository) ListByFile(ctx context.Context, tx *gorm.DB, fileID string) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := withCtx(ctx, r.db, tx).Where("file_id = ?", fileID).Order("id ASC").Find(&attachments).Error
	return attachments, err
}

func (r *GormAttachmentRepository) GetByIDAndFile(ctx context.Context, tx *gorm.DB, attachmentID uint, fileID string) (models.Attachment, error) {
	var attachment models.Attachment
	err := withCtx(ctx, r.db, tx).Where("id = ? AND file_id = ?", attachmentID, fileID).First(&attachment).Error
	return attachment, err
}

func (r *GormAttachmentRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, attachmentIDs []uint) error {
	if len(attachmentIDs) == 0 {
		return nil
	}
	return withCtx(ctx, r.db, tx).Where("id IN ?", attachmentIDs).Delete(&models.Attachment{}).Error
}

func (r *GormAttachmentRepository) DeleteByFile(ctx context.Context, tx *gorm.DB, fileID string) error {
	return withCtx(ctx, r.db, tx).Where("file_id = ?", fileID).Delete(&models.Attachment{}).Error
}

func (r *GormAttachmentRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var total int64
	err := withCtx(ctx, r.db, tx).Model(&models.Attachment{}).Count(&total).Error
	return total, err
}
