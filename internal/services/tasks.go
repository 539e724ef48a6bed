package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateTaskInput struct {
	ProjectID   *uint
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssigneeID  *uint
}

// UpdateTaskInput applies only its non-nil fields. AssigneeID replaces the
// current assignee; zero unassigns the task.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	AssigneeID  *uint
}

type TaskFilter struct {
	ProjectID *uint
	Status    string
	// AssignedOnly keeps tasks assigned to the caller.
	AssignedOnly bool
}

type TaskService struct {
	db         *gorm.DB
	notifier   *notify.Notifier
	dispatcher notify.Dispatcher
	files      *fileKeeper
	log        *logrus.Entry
}

func NewTaskService(db *gorm.DB, store storage.FileStore, notifier *notify.Notifier, dispatcher notify.Dispatcher) *TaskService {
	return &TaskService{
		db:         db,
		notifier:   notifier,
		dispatcher: dispatcher,
		files:      newFileKeeper(db, store),
		log:        logutils.WithComponent("tasks"),
	}
}

// Create inserts the task and, when an assignee is given, its single
// assignment. The assignee is notified unless they created the task.
func (s *TaskService) Create(ctx context.Context, actorID uint, in CreateTaskInput) (*TaskView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Task title is required")
	}

	var task models.Task
	var note *models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ProjectID != nil {
			var project models.Project

			if err := tx.Select("id").First(&project, *in.ProjectID).Error; err != nil {
				return lookupErr(err, "Project")
			}

			if err := requireMember(tx, project.ID, actorID); err != nil {
				return err
			}
		}

		task = models.Task{
			ProjectID:   in.ProjectID,
			CreatorID:   actorID,
			Title:       title,
			Description: in.Description,
			Status:      types.ParseTaskStatus(in.Status),
			Priority:    types.ParseTaskPriority(in.Priority),
			DueDate:     in.DueDate,
		}

		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if in.AssigneeID == nil || *in.AssigneeID == 0 {
			return nil
		}

		var err error
		note, err = s.assign(ctx, tx, task, actorID, *in.AssigneeID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.notifier.Publish(note)

	return s.view(ctx, task.ID)
}

// Update applies the present fields of in. A status change is announced to
// the creator and assignee, any other change as a task update.
func (s *TaskService) Update(ctx context.Context, actorID, taskID uint, in UpdateTaskInput) (*TaskView, error) {
	updates := map[string]any{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("Task title cannot be empty")
		}
		updates["title"] = title
	}

	if in.Description != nil {
		updates["description"] = *in.Description
	}

	if in.Priority != nil {
		updates["priority"] = types.ParseTaskPriority(*in.Priority)
	}

	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}

	if len(updates) == 0 && in.Status == nil && in.AssigneeID == nil {
		return nil, invalid("No valid fields to update")
	}

	var task models.Task
	var note *models.Notification
	statusChanged := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		task, err = loadTask(tx, taskID)
		if err != nil {
			return err
		}

		if err := requireTaskAccess(tx, task, actorID); err != nil {
			return err
		}

		if in.Status != nil {
			status := types.ParseTaskStatus(*in.Status)
			if status != task.Status {
				updates["status"] = status
				statusChanged = true
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
		}

		if in.AssigneeID == nil {
			return nil
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear assignment: %w", err)
		}

		if *in.AssigneeID == 0 {
			return nil
		}

		note, err = s.assign(ctx, tx, task, actorID, *in.AssigneeID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.notifier.Publish(note)

	view, err := s.view(ctx, taskID)
	if err != nil {
		return nil, err
	}

	audience := []uint{view.CreatorID}
	if view.AssigneeID != nil {
		audience = append(audience, *view.AssigneeID)
	}

	switch {
	case statusChanged:
		s.dispatcher.Dispatch(ctx, audience, notify.Event{
			Type:      types.NotificationTaskStatusChanged,
			ActorID:   &actorID,
			Message:   fmt.Sprintf("Task %q is now %s", view.Title, view.Status),
			TaskID:    &task.ID,
			ProjectID: task.ProjectID,
		})
	case len(updates) > 0:
		s.dispatcher.Dispatch(ctx, audience, notify.Event{
			Type:      types.NotificationTaskUpdated,
			ActorID:   &actorID,
			Message:   fmt.Sprintf("Task %q has been updated", view.Title),
			TaskID:    &task.ID,
			ProjectID: task.ProjectID,
		})
	}

	return view, nil
}

// assign makes assigneeID the assignee of task and stores their notification
// unless they are the actor.
func (s *TaskService) assign(ctx context.Context, tx *gorm.DB, task models.Task, actorID, assigneeID uint) (*models.Notification, error) {
	var user models.User

	if err := tx.Select("id").First(&user, assigneeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("Assignee %d does not exist", assigneeID)
		}
		return nil, fmt.Errorf("failed to load assignee: %w", err)
	}

	// The row is stored even when the creator assigns themselves; Insert
	// drops the notification because actor and recipient match.
	if err := assign(tx, task.ID, assigneeID); err != nil {
		return nil, err
	}

	return s.notifier.Insert(ctx, tx, assigneeID, notify.Event{
		Type:      types.NotificationTaskAssigned,
		ActorID:   &actorID,
		Message:   fmt.Sprintf("You have been assigned to task %q", task.Title),
		TaskID:    &task.ID,
		ProjectID: task.ProjectID,
	})
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uint) (*TaskView, error) {
	tx := s.db.WithContext(ctx)

	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := requireTaskAccess(tx, task, userID); err != nil {
		return nil, err
	}

	view := newTaskView(task)
	return &view, nil
}

// List returns the tasks userID can see, oldest first.
func (s *TaskService) List(ctx context.Context, userID uint, filter TaskFilter) ([]TaskView, error) {
	tx := s.db.WithContext(ctx)

	assigned := tx.Model(&models.TaskAssignment{}).Select("task_id").Where("user_id = ?", userID)
	query := tx.Preload("Assignments.User")

	if filter.AssignedOnly {
		query = query.Where("id IN (?)", assigned)
	} else {
		memberOf := tx.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
		query = query.Where(
			tx.Where("creator_id = ?", userID).
				Or("id IN (?)", assigned).
				Or("project_id IN (?)", memberOf),
		)
	}

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", types.ParseTaskStatus(filter.Status))
	}

	var tasks []models.Task

	if err := query.Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	return views, nil
}

// Delete removes the task with its assignments, comments and attachments.
// The creator or the manager of the task's project may delete it.
func (s *TaskService) Delete(ctx context.Context, actorID, taskID uint) error {
	var paths []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}

		if task.CreatorID != actorID {
			role := types.MemberRole("")
			if task.ProjectID != nil {
				if role, err = memberRole(tx, *task.ProjectID, actorID); err != nil {
					return err
				}
			}

			if role != types.RoleManager {
				return forbidden("Only the task creator or project manager can delete this task")
			}
		}

		if err := tx.Model(&models.Attachment{}).Where("task_id = ?", taskID).Pluck("path", &paths).Error; err != nil {
			return fmt.Errorf("failed to load task attachments: %w", err)
		}

		return deleteTaskRows(tx, []uint{taskID})
	})

	if err != nil {
		return err
	}

	s.files.discard(ctx, paths, "task deleted")
	return nil
}

func (s *TaskService) view(ctx context.Context, taskID uint) (*TaskView, error) {
	task, err := loadTask(s.db.WithContext(ctx), taskID)
	if err != nil {
		return nil, err
	}

	view := newTaskView(task)
	return &view, nil
}
