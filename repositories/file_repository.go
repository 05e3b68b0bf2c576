package repositories

import (
	"context"
	"strings"

	"jaryo/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a lower-cased substring pattern; % and _ in term match literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *GormFileRepository) listQuery(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return withCtx(ctx, r.db, tx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Model(&models.File{}).
		Order("created_at DESC").
		Order("id DESC")
}

func (r *GormFileRepository) List(ctx context.Context, tx *gorm.DB, in ListFilesInput) ([]models.File, error) {
	query := r.listQuery(ctx, tx)
	if in.Category != "" {
		query = query.Where("category = ?", in.Category)
	}
	var files []models.File
	err := query.Offset(in.Offset).Limit(in.Limit).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) Search(ctx context.Context, tx *gorm.DB, in SearchFilesInput) ([]models.File, error) {
	pattern := likePattern(in.Term)
	matches := "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'"
	args := []interface{}{pattern, pattern}
	// tag_text holds one tag per line; a term spanning a line break would match across two tags.
	if !strings.Contains(in.Term, "\n") {
		matches += " OR LOWER(tag_text) LIKE ? ESCAPE '!'"
		args = append(args, pattern)
	}
	query := r.listQuery(ctx, tx).Where("("+matches+")", args...)
	if in.Category != "" {
		query = query.Where("category = ?", in.Category)
	}
	var files []models.File
	err := query.Limit(in.Limit).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var total int64
	err := withCtx(ctx, r.db, tx).Model(&models.File{}).Count(&total).Error
	return total, err
}

func (r *GormFileRepository) CountByCategory(ctx context.Context, tx *gorm.DB) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	err := withCtx(ctx, r.db, tx).Model(&models.File{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *GormFileRepository) GetByID(ctx context.Context, tx *gorm.DB, fileID string, preloadAttachments bool) (models.File, error) {
	db := withCtx(ctx, r.db, tx)
	if preloadAttachments {
		db = db.Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	}
	var file models.File
	err := db.Where("id = ?", fileID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) Create(ctx context.Context, tx *gorm.DB, file *models.File) error {
	return withCtx(ctx, r.db, tx).Omit("Attachments").Create(file).Error
}

func (r *GormFileRepository) UpdateByID(ctx context.Context, tx *gorm.DB, fileID string, updates map[string]interface{}) (int64, error) {
	result := withCtx(ctx, r.db, tx).Model(&models.File{}).Where("id = ?", fileID).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *GormFileRepository) DeleteByID(ctx context.Context, tx *gorm.DB, fileID string) (int64, error) {
	result := withCtx(ctx, r.db, tx).Where("id = ?", fileID).Delete(&models.File{})
	return result.RowsAffected, result.Error
}

func (r *GormFileRepository) ReassignCategory(ctx context.Context, tx *gorm.DB, from string, to string) (int64, error) {
	result := withCtx(ctx, r.db, tx).Model(&models.File{}).
		Where("category = ?", from).
		UpdateColumn("category", to)
	return result.RowsAffected, result.Error
}
