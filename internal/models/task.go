package models

import (
	"time"

	"github.com/monocle-dev/taskboard/internal/types"
)

type Task struct {
	BaseModel

	ProjectID   *uint              `gorm:"index"` // nil for personal tasks
	CreatorID   uint               `gorm:"not null;index"`
	Title       string             `gorm:"not null"`
	Description string
	Priority    types.TaskPriority `gorm:"type:varchar(16);not null"`
	Status      types.TaskStatus   `gorm:"type:varchar(16);not null;index"`
	DueDate     *time.Time

	// Relationships
	Creator     User             `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Comments    []Comment        `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Attachments []Attachment     `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TaskAssignment permits many users per task at the schema level; the task
// workflow keeps a single row per task.
type TaskAssignment struct {
	TaskID    uint `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Comment struct {
	BaseModel

	TaskID   uint   `gorm:"not null;index"`
	AuthorID uint   `gorm:"not null;index"`
	Text     string `gorm:"type:text;not null"`

	// Relationships
	Author User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
