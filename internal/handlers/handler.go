package handlers

import (
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/services"
	"gorm.io/gorm"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	DB             *gorm.DB
	Users          *services.UserService
	Projects       *services.ProjectService
	Tasks          *services.TaskService
	Attachments    *services.AttachmentService
	Comments       *services.CommentService
	Notifications  *services.NotificationService
	Hub            *notify.Hub
	AllowedOrigins []string
}
