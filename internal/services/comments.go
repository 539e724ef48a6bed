package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentService struct {
	db         *gorm.DB
	dispatcher notify.Dispatcher
}

func NewCommentService(db *gorm.DB, dispatcher notify.Dispatcher) *CommentService {
	return &CommentService{db: db, dispatcher: dispatcher}
}

// Add stores a comment and tells the task's creator and assignee about it.
func (s *CommentService) Add(ctx context.Context, authorID, taskID uint, text string) (*CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment text is required")
	}

	tx := s.db.WithContext(ctx)

	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := requireTaskAccess(tx, task, authorID); err != nil {
		return nil, err
	}

	comment := models.Comment{TaskID: taskID, AuthorID: authorID, Text: text}

	if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if err := tx.Select("id", "name").First(&comment.Author, authorID).Error; err != nil {
		return nil, lookupErr(err, "User")
	}

	s.dispatcher.Dispatch(ctx, taskAudience(task), notify.Event{
		Type:      types.NotificationNewComment,
		ActorID:   &authorID,
		Message:   fmt.Sprintf("%s commented on task %q", comment.Author.Name, task.Title),
		TaskID:    &task.ID,
		ProjectID: task.ProjectID,
	})

	view := newCommentView(comment)
	return &view, nil
}

// List returns the task's comments, oldest first.
func (s *CommentService) List(ctx context.Context, userID, taskID uint) ([]CommentView, error) {
	tx := s.db.WithContext(ctx)

	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := requireTaskAccess(tx, task, userID); err != nil {
		return nil, err
	}

	var comments []models.Comment

	if err := tx.Preload("Author").Where("task_id = ?", taskID).Order("created_at, id").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, newCommentView(c))
	}
	return views, nil
}

// Delete removes a comment. Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, actorID, taskID, commentID uint) error {
	tx := s.db.WithContext(ctx)

	var comment models.Comment

	if err := tx.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error; err != nil {
		return lookupErr(err, "Comment")
	}

	if comment.AuthorID != actorID {
		return forbidden("Only the author can delete this comment")
	}

	if err := tx.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
