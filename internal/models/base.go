package models

import "time"

// BaseModel is gorm.Model without soft deletes; rows in this schema are
// removed for real so that dependent rows can be cleaned up with them.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels is the migration order: parents before children.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&TaskAssignment{},
		&Attachment{},
		&Comment{},
		&Notification{},
		&OrphanedFile{},
	}
}
