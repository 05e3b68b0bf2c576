package repositories

import (
	"context"

	"jaryo/models"

	"gorm.io/gorm"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) List(ctx context.Context, tx *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	err := withCtx(ctx, r.db, tx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *GormCategoryRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var total int64
	err := withCtx(ctx, r.db, tx).Model(&models.Category{}).Count(&total).Error
	return total, err
}

func (r *GormCategoryRepository) CountByName(ctx context.Context, tx *gorm.DB, name string, excludeID uint) (int64, error) {
	query := withCtx(ctx, r.db, tx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *GormCategoryRepository) GetByID(ctx context.Context, tx *gorm.DB, categoryID uint) (models.Category, error) {
	var category models.Category
	err := withCtx(ctx, r.db, tx).First(&category, categoryID).Error
	return category, err
}

func (r *GormCategoryRepository) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	return withCtx(ctx, r.db, tx).Create(category).Error
}

func (r *GormCategoryRepository) UpdateName(ctx context.Context, tx *gorm.DB, categoryID uint, name string) error {
	return withCtx(ctx, r.db, tx).Model(&models.Category{}).Where("id = ?", categoryID).Update("name", name).Error
}

func (r *GormCategoryRepository) DeleteByID(ctx context.Context, tx *gorm.DB, categoryID uint) error {
	return withCtx(ctx, r.db, tx).Where("id = ?", categoryID).Delete(&models.Category{}).Error
}
