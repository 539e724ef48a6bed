package types

type NotificationType string

const (
	NotificationTaskAssigned      NotificationType = "task_assigned"
	NotificationTaskStatusChanged NotificationType = "task_status_changed"
	NotificationTaskUpdated       NotificationType = "task_updated"
	NotificationNewComment        NotificationType = "new_comment"
	NotificationNewAttachment     NotificationType = "new_attachment"
	NotificationProjectCreated    NotificationType = "project_created"
	NotificationProjectUpdate     NotificationType = "project_update"
)

// NotificationPreferences are the per-user switches stored on the user row.
type NotificationPreferences struct {
	Email             bool `json:"email"`
	TaskAssigned      bool `json:"taskAssigned"`
	TaskStatusChanged bool `json:"taskStatusChanged"`
	TaskUpdated       bool `json:"taskUpdated"`
	NewComment        bool `json:"newComment"`
	NewAttachment     bool `json:"newAttachment"`
	ProjectUpdate     bool `json:"projectUpdate"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email:             true,
		TaskAssigned:      true,
		TaskStatusChanged: true,
		TaskUpdated:       true,
		NewComment:        true,
		NewAttachment:     true,
		ProjectUpdate:     true,
	}
}

// Allows reports whether a notification of type t should be stored for the
// owner of these preferences. Project creation notices are always delivered.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	switch t {
	case NotificationTaskAssigned:
		return p.TaskAssigned
	case NotificationTaskStatusChanged:
		return p.TaskStatusChanged
	case NotificationTaskUpdated:
		return p.TaskUpdated
	case NotificationNewComment:
		return p.NewComment
	case NotificationNewAttachment:
		return p.NewAttachment
	case NotificationProjectUpdate:
		return p.ProjectUpdate
	case NotificationProjectCreated:
		return true
	default:
		return true
	}
}
