package services

import (
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
)

type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MemberView struct {
	ID    uint             `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Role  types.MemberRole `json:"role"`
}

// TaskView renders status and priority with their client labels.
type TaskView struct {
	ID          uint       `json:"id"`
	ProjectID   *uint      `json:"projectId"`
	CreatorID   uint       `json:"creatorId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *uint      `json:"assigneeId"`
	Assignee    string     `json:"assignee,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newTaskView(t models.Task) TaskView {
	view := TaskView{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		CreatorID:   t.CreatorID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.Label(),
		Priority:    t.Priority.Label(),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
	}

	if len(t.Assignments) > 0 {
		a := t.Assignments[0]
		view.AssigneeID = &a.UserID
		view.Assignee = a.User.Name
	}

	return view
}

type AttachmentView struct {
	ID         uint      `json:"id"`
	ProjectID  *uint     `json:"projectId,omitempty"`
	TaskID     *uint     `json:"taskId,omitempty"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"type"`
	UploaderID uint      `json:"uploaderId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newAttachmentView(a models.Attachment) AttachmentView {
	return AttachmentView{
		ID:         a.ID,
		ProjectID:  a.ProjectID,
		TaskID:     a.TaskID,
		Name:       a.OriginalName,
		Path:       a.Path,
		Size:       a.Size,
		MimeType:   a.MimeType,
		UploaderID: a.UploaderID,
		CreatedAt:  a.CreatedAt,
	}
}

func newAttachmentViews(rows []models.Attachment) []AttachmentView {
	views := make([]AttachmentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newAttachmentView(row))
	}
	return views
}

type CommentView struct {
	ID         uint      `json:"id"`
	TaskID     uint      `json:"taskId"`
	AuthorID   uint      `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newCommentView(c models.Comment) CommentView {
	return CommentView{
		ID:         c.ID,
		TaskID:     c.TaskID,
		AuthorID:   c.AuthorID,
		AuthorName: c.Author.Name,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
}
