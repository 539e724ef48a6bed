package models

import (
	"time"

	"github.com/monocle-dev/taskboard/internal/types"
)

type Project struct {
	BaseModel

	Name        string              `gorm:"not null"`
	Description string
	ManagerID   uint                `gorm:"not null;index"`
	Status      types.ProjectStatus `gorm:"type:varchar(32);not null"`
	DueDate     *time.Time

	// Relationships
	Manager     User            `gorm:"foreignKey:ManagerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks       []Task          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Attachments []Attachment    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// ProjectMember is keyed by (project, user) so a user appears at most once
// per project.
type ProjectMember struct {
	ProjectID uint             `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint             `gorm:"primaryKey;autoIncrement:false;index"`
	Role      types.MemberRole `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
