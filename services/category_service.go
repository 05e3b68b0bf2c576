package services

import (
	"context"
	"errors"
	"strings"

	"jaryo/logger"
	"jaryo/models"
	"jaryo/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DeleteCategoryOutput struct {
	Reassigned int64  `json:"reassigned"`
	Fallback   string `json:"fallback"`
}

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string) (models.Category, error)
	Update(ctx context.Context, categoryID uint, name string) (models.Category, error)
	Delete(ctx context.Context, categoryID uint) (DeleteCategoryOutput, error)
	EnsureDefaults(ctx context.Context, names []string) error
}

type categoryService struct {
	txManager  repositories.TxManager
	categories repositories.CategoryRepository
	files      repositories.FileRepository
	fallback   string
}

func NewCategoryService(
	txManager repositories.TxManager,
	categories repositories.CategoryRepository,
	files repositories.FileRepository,
	fallback string,
) CategoryService {
	return &categoryService{
		txManager:  txManager,
		categories: categories,
		files:      files,
		fallback:   fallback,
	}
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx, nil)
	if err != nil {
		return nil, newAppError(KindInternal, "failed to list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *categoryService) Create(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, ValidationError("category name is required")
	}

	category := models.Category{Name: name}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.checkUnique(ctx, tx, name, 0); err != nil {
			return err
		}
		if err := s.categories.Create(ctx, tx, &category); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateCategory()
			}
			return newAppError(KindInternal, "failed to create category", err)
		}
		return nil
	})
	if err != nil {
		return models.Category{}, asAppError(err, "failed to create category")
	}
	return category, nil
}

// Update renames a category and carries the new name to every record filed under it.
func (s *categoryService) Update(ctx context.Context, categoryID uint, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, ValidationError("category name is required")
	}

	var category models.Category
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.get(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if current.Name == name {
			category = current
			return nil
		}
		if current.Name == s.fallback {
			return ValidationError("the fallback category cannot be renamed")
		}
		if err := s.checkUnique(ctx, tx, name, categoryID); err != nil {
			return err
		}
		if err := s.categories.UpdateName(ctx, tx, categoryID, name); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateCategory()
			}
			return newAppError(KindInternal, "failed to update category", err)
		}
		moved, err := s.files.ReassignCategory(ctx, tx, current.Name, name)
		if err != nil {
			return newAppError(KindInternal, "failed to update files", err)
		}
		logger.Info("category renamed",
			zap.String("from", current.Name),
			zap.String("to", name),
			zap.Int64("files", moved))
		current.Name = name
		category = current
		return nil
	})
	if err != nil {
		return models.Category{}, asAppError(err, "failed to update category")
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, categoryID uint) (DeleteCategoryOutput, error) {
	out := DeleteCategoryOutput{Fallback: s.fallback}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.get(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if current.Name == s.fallback {
			return ValidationError("the fallback category cannot be deleted")
		}
		if err := s.ensureExists(ctx, tx, s.fallback); err != nil {
			return err
		}
		moved, err := s.files.ReassignCategory(ctx, tx, current.Name, s.fallback)
		if err != nil {
			return newAppError(KindInternal, "failed to reassign files", err)
		}
		if err := s.categories.DeleteByID(ctx, tx, categoryID); err != nil {
			return newAppError(KindInternal, "failed to delete category", err)
		}
		out.Reassigned = moved
		return nil
	})
	if err != nil {
		return DeleteCategoryOutput{}, asAppError(err, "failed to delete category")
	}
	return out, nil
}

func (s *categoryService) EnsureDefaults(ctx context.Context, names []string) error {
	names = append(append([]string{}, names...), s.fallback)
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := s.ensureExists(ctx, tx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *categoryService) ensureExists(ctx context.Context, tx *gorm.DB, name string) error {
	count, err := s.categories.CountByName(ctx, tx, name, 0)
	if err != nil {
		return newAppError(KindInternal, "failed to check category", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.categories.Create(ctx, tx, &models.Category{Name: name}); err != nil {
		return newAppError(KindInternal, "failed to create category", err)
	}
	return nil
}

func (s *categoryService) get(ctx context.Context, tx *gorm.DB, categoryID uint) (models.Category, error) {
	category, err := s.categories.GetByID(ctx, tx, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, newAppError(KindNotFound, "category not found", nil)
	}
	if err != nil {
		return models.Category{}, newAppError(KindInternal, "failed to load category", err)
	}
	return category, nil
}

func (s *categoryService) checkUnique(ctx context.Context, tx *gorm.DB, name string, excludeID uint) error {
	count, err := s.categories.CountByName(ctx, tx, name, excludeID)
	if err != nil {
		return newAppError(KindInternal, "failed to check category", err)
	}
	if count > 0 {
		return duplicateCategory()
	}
	return nil
}

func duplicateCategory() *AppError {
	return newAppError(KindDuplicate, "category name already exists", nil)
}
