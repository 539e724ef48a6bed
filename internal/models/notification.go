package models

import "github.com/monocle-dev/taskboard/internal/types"

// Notification rows are append-only apart from IsRead.
type Notification struct {
	BaseModel

	UserID    uint                   `gorm:"not null;index:idx_notifications_user_read"`
	ActorID   *uint                  `gorm:"index"`
	Type      types.NotificationType `gorm:"type:varchar(32);not null"`
	Message   string                 `gorm:"not null"`
	TaskID    *uint                  `gorm:"index"`
	ProjectID *uint                  `gorm:"index"`
	IsRead    bool                   `gorm:"not null;index:idx_notifications_user_read"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Actor *User `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
