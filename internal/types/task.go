package types

import "strings"

// TaskStatus is the stored form of a task's workflow state.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskStatuses lists every stored status in workflow order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskDone, TaskBlocked}

var taskStatusLabels = map[TaskStatus]string{
	TaskTodo:       "To-Do",
	TaskInProgress: "In Progress",
	TaskDone:       "Completed",
	TaskBlocked:    "Blocked",
}

// ParseTaskStatus maps a client label ("To-Do", "In Progress", "Completed",
// "Blocked") or a stored value to a TaskStatus. Anything else is TaskTodo.
func ParseTaskStatus(s string) TaskStatus {
	key := normalize(s)

	for _, status := range TaskStatuses {
		if key == normalize(string(status)) || key == normalize(taskStatusLabels[status]) {
			return status
		}
	}

	return TaskTodo
}

func (s TaskStatus) Valid() bool {
	_, ok := taskStatusLabels[s]
	return ok
}

// Label is the client facing name of the status.
func (s TaskStatus) Label() string {
	if label, ok := taskStatusLabels[s]; ok {
		return label
	}
	return taskStatusLabels[TaskTodo]
}

// TaskPriority is the stored form of a task's priority.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

var taskPriorityLabels = map[TaskPriority]string{
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

// ParseTaskPriority maps "Low", "Medium", "High", "Critical" (any case) to a
// TaskPriority. Anything else is PriorityMedium.
func ParseTaskPriority(s string) TaskPriority {
	key := normalize(s)

	for _, priority := range TaskPriorities {
		if key == string(priority) {
			return priority
		}
	}

	return PriorityMedium
}

func (p TaskPriority) Valid() bool {
	_, ok := taskPriorityLabels[p]
	return ok
}

func (p TaskPriority) Label() string {
	if label, ok := taskPriorityLabels[p]; ok {
		return label
	}
	return taskPriorityLabels[PriorityMedium]
}

// normalize lower-cases s and folds '-' and '_' into spaces.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
