package models

import (
	"time"

	"gorm.io/gorm"
)

// File is a board record. Category holds a Category name, not an id.
type File struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Category    string       `gorm:"type:varchar(100);not null;index" json:"category"`
	Tags        []string     `gorm:"type:text;serializer:tags" json:"tags"`
	TagText     string       `gorm:"type:text" json:"-"`
	UserID      string       `gorm:"type:varchar(36);index" json:"user_id"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Attachments []Attachment `gorm:"foreignKey:FileID" json:"files"`
}

func (f *File) BeforeCreate(_ *gorm.DB) error {
	f.TagText = TagSearchText(f.Tags)
	return nil
}

func (f *File) AfterFind(_ *gorm.DB) error {
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.Attachments == nil {
		f.Attachments = []Attachment{}
	}
	return nil
}

// Attachment is one stored blob of a File. StoragePath is relative to the blob store root.
type Attachment struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID        string    `gorm:"type:varchar(36);not null;index" json:"file_id"`
	OriginalName  string    `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName    string    `gorm:"type:varchar(255);not null" json:"stored_name"`
	StoragePath   string    `gorm:"type:varchar(1000);not null" json:"-"`
	ThumbnailPath string    `gorm:"type:varchar(1000)" json:"-"`
	FileSize      int64     `gorm:"not null" json:"file_size"`
	MimeType      string    `gorm:"type:varchar(100)" json:"mime_type"`
	HasThumbnail  bool      `gorm:"-" json:"has_thumbnail"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "file_attachments"
}

func (a *Attachment) AfterFind(_ *gorm.DB) error {
	a.HasThumbnail = a.ThumbnailPath != ""
	return nil
}

func (a *Attachment) AfterCreate(_ *gorm.DB) error {
	a.HasThumbnail = a.ThumbnailPath != ""
	return nil
}
