package services

import (
	"fmt"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/gorm"
)

// memberRole returns the role of userID in projectID, or "" for outsiders.
func memberRole(tx *gorm.DB, projectID, userID uint) (types.MemberRole, error) {
	var members []models.ProjectMember

	err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Limit(1).Find(&members).Error
	if err != nil {
		return "", fmt.Errorf("failed to load membership: %w", err)
	}

	if len(members) == 0 {
		return "", nil
	}
	return members[0].Role, nil
}

func requireMember(tx *gorm.DB, projectID, userID uint) error {
	role, err := memberRole(tx, projectID, userID)
	if err != nil {
		return err
	}

	if role == "" {
		return forbidden("You are not a member of this project")
	}
	return nil
}

func projectMemberIDs(tx *gorm.DB, projectID uint) ([]uint, error) {
	var ids []uint

	err := tx.Model(&models.ProjectMember{}).Where("project_id = ?", projectID).Order("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load project members: %w", err)
	}
	return ids, nil
}

func loadTask(tx *gorm.DB, taskID uint) (models.Task, error) {
	var task models.Task

	if err := tx.Preload("Assignments.User").First(&task, taskID).Error; err != nil {
		return task, lookupErr(err, "Task")
	}
	return task, nil
}

// canSeeTask holds for the creator, the assignee and members of the task's
// project.
func canSeeTask(tx *gorm.DB, task models.Task, userID uint) (bool, error) {
	if task.CreatorID == userID {
		return true, nil
	}

	for _, a := range task.Assignments {
		if a.UserID == userID {
			return true, nil
		}
	}

	if task.ProjectID == nil {
		return false, nil
	}

	role, err := memberRole(tx, *task.ProjectID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

func requireTaskAccess(tx *gorm.DB, task models.Task, userID uint) error {
	ok, err := canSeeTask(tx, task, userID)
	if err != nil {
		return err
	}

	if !ok {
		return forbidden("You do not have access to this task")
	}
	return nil
}

// taskAudience is the creator and current assignees of task.
func taskAudience(task models.Task) []uint {
	ids := []uint{task.CreatorID}
	for _, a := range task.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}
