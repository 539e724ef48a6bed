package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/monocle-dev/taskboard/internal/dbtest"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type published struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (p *published) Publish(n models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)
}

func (p *published) all() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.notes...)
}

type env struct {
	db          *gorm.DB
	store       storage.FileStore
	pub         *published
	projects    *ProjectService
	tasks       *TaskService
	attachments *AttachmentService
	comments    *CommentService
	inbox       *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, storage.NewMemory())
}

func newEnvWithStore(t *testing.T, store storage.FileStore) *env {
	t.Helper()

	db := dbtest.New(t)
	pub := &published{}
	notifier := notify.NewNotifier(db, pub)
	dispatcher := notify.NewInlineDispatcher(notifier)

	return &env{
		db:          db,
		store:       store,
		pub:         pub,
		projects:    NewProjectService(db, store, notifier, dispatcher),
		tasks:       NewTaskService(db, store, notifier, dispatcher),
		attachments: NewAttachmentService(db, store, dispatcher),
		comments:    NewCommentService(db, dispatcher),
		inbox:       NewNotificationService(db),
	}
}

func (e *env) user(t *testing.T, name string) models.User {
	t.Helper()

	user := models.User{
		Name:                    name,
		Email:                   strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash:            "x",
		NotificationPreferences: datatypes.NewJSONType(types.DefaultNotificationPreferences()),
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (e *env) members(t *testing.T, projectID uint) []models.ProjectMember {
	t.Helper()

	var rows []models.ProjectMember
	require.NoError(t, e.db.Where("project_id = ?", projectID).Order("user_id").Find(&rows).Error)
	return rows
}

func (e *env) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()

	var rows []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id").Find(&rows).Error)
	return rows
}

func (e *env) exists(t *testing.T, path string) bool {
	t.Helper()

	_, err := e.store.Stat(context.Background(), path)
	return err == nil
}

func ptr[T any](v T) *T { return &v }
