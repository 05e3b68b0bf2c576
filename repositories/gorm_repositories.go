package repositories

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

type GormRepositories struct {
	db        *gorm.DB
	redis     *redis.Client
	keyPrefix string
}

// NewGormRepositories builds gorm-backed stores. A non-nil redisClient moves sessions to redis.
func NewGormRepositories(db *gorm.DB, redisClient *redis.Client, keyPrefix string) *GormRepositories {
	return &GormRepositories{db: db, redis: redisClient, keyPrefix: keyPrefix}
}

func (r *GormRepositories) BuildContainer() Container {
	var sessions SessionRepository = NewGormSessionRepository(r.db)
	if r.redis != nil {
		sessions = NewRedisSessionRepository(r.redis, r.keyPrefix)
	}

	return Container{
		TxManager:   NewGormTxManager(r.db),
		Users:       NewGormUserRepository(r.db),
		Files:       NewGormFileRepository(r.db),
		Attachments: NewGormAttachmentRepository(r.db),
		Categories:  NewGormCategoryRepository(r.db),
		Sessions:    sessions,
	}
}

func useTx(db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func withCtx(ctx context.Context, db *gorm.DB, tx *gorm.DB) *gorm.DB {
	return useTx(db, tx).WithContext(ctx)
}
