package services

import (
	"time"

	"jaryo/config"
	"jaryo/repositories"
	"jaryo/storage"
	"jaryo/utils"
)

type Container struct {
	Auth        AuthService
	Files       FileService
	Attachments AttachmentService
	Categories  CategoryService
	Cleanup     CleanupService
}

func NewContainer(repos repositories.Container, blobs storage.BlobStore, signer *utils.TokenSigner, cfg *config.Config) *Container {
	manager := newBlobManager(blobs, cfg)
	attachments := NewAttachmentService(repos.Files, repos.Attachments, blobs, manager)
	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour

	return &Container{
		Auth:        NewAuthService(repos.TxManager, repos.Users, repos.Sessions, signer, ttl),
		Files:       NewFileService(repos.TxManager, repos.Files, repos.Attachments, attachments, manager, cfg.Pagination),
		Attachments: attachments,
		Categories:  NewCategoryService(repos.TxManager, repos.Categories, repos.Files, cfg.Categories.Fallback),
		Cleanup:     NewCleanupService(repos.Sessions),
	}
}
