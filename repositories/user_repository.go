package repositories

import (
	"context"
	"time"

	"jaryo/models"

	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CountByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error) {
	var count int64
	err := withCtx(ctx, r.db, tx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return withCtx(ctx, r.db, tx).Create(user).Error
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error) {
	var user models.User
	err := withCtx(ctx, r.db, tx).Where("email = ?", email).First(&user).Error
	return user, err
}

func (r *GormUserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID string) (models.User, error) {
	var user models.User
	err := withCtx(ctx, r.db, tx).Where("id = ?", userID).First(&user).Error
	return user, err
}

func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, tx *gorm.DB, userID string, at time.Time) error {
	return withCtx(ctx, r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
}
