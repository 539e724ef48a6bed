package models

import "time"

// Attachment belongs to exactly one of a project or a task. Path is relative
// to the upload root.
type Attachment struct {
	BaseModel

	ProjectID    *uint  `gorm:"index"`
	TaskID       *uint  `gorm:"index"`
	Path         string `gorm:"type:varchar(512);not null"`
	OriginalName string `gorm:"type:varchar(255);not null"`
	Size         int64  `gorm:"not null"`
	MimeType     string `gorm:"type:varchar(128)"`
	UploaderID   uint   `gorm:"not null;index"`

	// Relationships
	Uploader User `gorm:"foreignKey:UploaderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// OrphanedFile is a stored file whose row is gone but whose removal from the
// upload root failed. The sweeper retries these.
type OrphanedFile struct {
	BaseModel

	Path      string `gorm:"type:varchar(512);not null;uniqueIndex"`
	Reason    string
	Attempts  int `gorm:"not null"`
	LastError string
	LastTryAt *time.Time
}
