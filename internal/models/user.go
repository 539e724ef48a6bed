package models

import (
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/datatypes"
)

type User struct {
	BaseModel

	Name         string `gorm:"not null;index"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null" json:"-"`

	NotificationPreferences datatypes.JSONType[types.NotificationPreferences]
}

func (u User) Preferences() types.NotificationPreferences {
	return u.NotificationPreferences.Data()
}
