package types

// ProjectStatus is stored as its display name.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectCompleted  ProjectStatus = "Completed"
)

var ProjectStatuses = []ProjectStatus{ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted}

// ParseProjectStatus accepts the display names in any case as well as their
// snake_case forms. Unknown values map to ProjectPlanning.
func ParseProjectStatus(s string) ProjectStatus {
	key := normalize(s)

	for _, status := range ProjectStatuses {
		if key == normalize(string(status)) {
			return status
		}
	}

	return ProjectPlanning
}

func (s ProjectStatus) Valid() bool {
	for _, status := range ProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MemberRole distinguishes the single project manager from ordinary members.
type MemberRole string

const (
	RoleManager MemberRole = "manager"
	RoleMember  MemberRole = "member"
)

// AttachmentScope names the kind of parent an attachment hangs off and is
// also the top-level directory of its stored file.
type AttachmentScope string

const (
	ScopeProject AttachmentScope = "projects"
	ScopeTask    AttachmentScope = "tasks"
)
