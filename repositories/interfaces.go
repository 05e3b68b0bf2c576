package repositories

import (
	"context"
	"errors"
	"time"

	"jaryo/models"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a session is stored with an expiry already in the past.
var ErrSessionExpired = errors.New("session already expired")

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (models.User, error)
	UpdateLastLogin(ctx context.Context, tx *gorm.DB, userID string, at time.Time) error
}

type ListFilesInput struct {
	Category string
	Offset   int
	Limit    int
}

type SearchFilesInput struct {
	Term     string
	Category string
	Limit    int
}

type FileRepository interface {
	List(ctx context.Context, tx *gorm.DB, in ListFilesInput) ([]models.File, error)
	Search(ctx context.Context, tx *gorm.DB, in SearchFilesInput) ([]models.File, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountByCategory(ctx context.Context, tx *gorm.DB) ([]models.CategoryCount, error)
	GetByID(ctx context.Context, tx *gorm.DB, fileID string, preloadAttachments bool) (models.File, error)
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	UpdateByID(ctx context.Context, tx *gorm.DB, fileID string, updates map[string]interface{}) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, fileID string) (int64, error)
	ReassignCategory(ctx context.Context, tx *gorm.DB, from string, to string) (int64, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attachment *models.Attachment) error
	ListByFile(ctx context.Context, tx *gorm.DB, fileID string) ([]models.Attachment, error)
	GetByIDAndFile(ctx context.Context, tx *gorm.DB, attachmentID uint, fileID string) (models.Attachment, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, attachmentIDs []uint) error
	DeleteByFile(ctx context.Context, tx *gorm.DB, fileID string) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]models.Category, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountByName(ctx context.Context, tx *gorm.DB, name string, excludeID uint) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, categoryID uint) (models.Category, error)
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	UpdateName(ctx context.Context, tx *gorm.DB, categoryID uint, name string) error
	DeleteByID(ctx context.Context, tx *gorm.DB, categoryID uint) error
}

// SessionRepository stores server-side login sessions. Get returns ErrSessionNotFound for unknown ids.
type SessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	Get(ctx context.Context, sessionID string) (models.UserSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Container struct {
	TxManager   TxManager
	Users       UserRepository
	Files       FileRepository
	Attachments AttachmentRepository
	Categories  CategoryRepository
	Sessions    SessionRepository
}
