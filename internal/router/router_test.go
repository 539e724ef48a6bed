package router

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/dbtest"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	store := storage.NewMemory()
	hub := notify.NewHub()
	notifier := notify.NewNotifier(db, hub)
	dispatcher := notify.NewInlineDispatcher(notifier)

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	h := &handlers.Handler{
		DB:             db,
		Users:          services.NewUserService(db, tokens),
		Projects:       services.NewProjectService(db, store, notifier, dispatcher),
		Tasks:          services.NewTaskService(db, store, notifier, dispatcher),
		Attachments:    services.NewAttachmentService(db, store, dispatcher),
		Comments:       services.NewCommentService(db, dispatcher),
		Notifications:  services.NewNotificationService(db),
		Hub:            hub,
		AllowedOrigins: types.AllowedOrigins(),
	}

	return NewRouter(h, tokens)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signUp registers a user and returns a bearer token for it.
func signUp(t *testing.T, r http.Handler, name string) string {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", name)

	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login := decode[struct {
		Token string `json:"token"`
	}](t, w)
	require.NotEmpty(t, login.Token)
	return login.Token
}

type createProjectResponse struct {
	Success           bool     `json:"success"`
	ProjectID         uint     `json:"projectId"`
	UnresolvedMembers []string `json:"unresolvedMembers"`
}

func TestCreateProjectAndFetchDetails(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "Alice")

	w := do(t, r, http.MethodPost, "/api/projects", alice, gin.H{
		"name":          "Launch",
		"status":        "In Progress",
		"assignMembers": "",
		"tasks": []gin.H{
			{"title": "Spec", "priority": "High"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[createProjectResponse](t, w)
	assert.True(t, created.Success)
	assert.NotZero(t, created.ProjectID)
	assert.Empty(t, created.UnresolvedMembers)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", created.ProjectID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	details := decode[services.ProjectDetails](t, w)
	assert.Equal(t, "Launch", details.Name)
	assert.Equal(t, types.ProjectInProgress, details.Status)
	require.Len(t, details.Members, 1)
	assert.Equal(t, "Alice", details.Members[0].Name)
	assert.Equal(t, types.RoleManager, details.Members[0].Role)
	require.Len(t, details.Tasks, 1)
	assert.Equal(t, "Spec", details.Tasks[0].Title)
	assert.Equal(t, "To-Do", details.Tasks[0].Status)
	assert.Equal(t, "High", details.Tasks[0].Priority)
	assert.Nil(t, details.Tasks[0].AssigneeID)
}

func TestCreateProjectWithMembersAndAttachment(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "Alice")
	bob := signUp(t, r, "Bob")
	carol := signUp(t, r, "Carol")

	w := do(t, r, http.MethodPost, "/api/projects", alice, gin.H{
		"name":          "Launch",
		"assignMembers": "Bob, Nobody",
		"tasks": []gin.H{
			{"title": "Spec", "assignee": "Bob", "dueDate": "2026-11-01"},
		},
		"attachments": []gin.H{
			{"name": "notes.txt", "type": "text/plain", "data": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[createProjectResponse](t, w)
	assert.Equal(t, []string{"Nobody"}, created.UnresolvedMembers)

	path := fmt.Sprintf("/api/projects/%d", created.ProjectID)

	w = do(t, r, http.MethodGet, path, bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	details := decode[services.ProjectDetails](t, w)
	require.Len(t, details.Members, 2)
	assert.Equal(t, "Alice", details.Members[0].Name)
	assert.Equal(t, types.RoleMember, details.Members[1].Role)
	require.Len(t, details.Tasks, 1)
	assert.Equal(t, "Bob", details.Tasks[0].Assignee)
	require.Len(t, details.Attachments, 1)
	assert.Equal(t, "notes.txt", details.Attachments[0].Name)
	assert.EqualValues(t, 5, details.Attachments[0].Size)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/attachments/%d/download", details.Attachments[0].ID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w = do(t, r, http.MethodGet, path, carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/notifications", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	kinds := map[types.NotificationType]int{}
	for _, n := range decode[[]notify.View](t, w) {
		kinds[n.Type]++
	}
	assert.Equal(t, 0, kinds[types.NotificationProjectCreated])
	assert.Equal(t, 1, kinds[types.NotificationTaskAssigned])

	w = do(t, r, http.MethodGet, "/api/notifications", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	managerInbox := decode[[]notify.View](t, w)
	require.Len(t, managerInbox, 1)
	assert.Equal(t, types.NotificationProjectCreated, managerInbox[0].Type)
	assert.Nil(t, managerInbox[0].ActorID)

	w = do(t, r, http.MethodPut, "/api/notifications/read-all", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[gin.H](t, w)["count"])
}

func TestCreateProjectRejectsBadAttachment(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "Alice")

	w := do(t, r, http.MethodPost, "/api/projects", alice, gin.H{
		"name":        "Launch",
		"attachments": []gin.H{{"name": "notes.txt", "data": "%%%"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/projects", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]services.ProjectSummary](t, w))
}

func TestTaskCommentFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "Alice")

	w := do(t, r, http.MethodPost, "/api/tasks", alice, gin.H{"title": "Write docs", "status": "In Progress"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	task := decode[struct {
		Task services.TaskView `json:"task"`
	}](t, w).Task
	assert.Equal(t, "In Progress", task.Status)

	taskPath := fmt.Sprintf("/api/tasks/%d", task.ID)

	w = do(t, r, http.MethodPut, taskPath, alice, gin.H{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, taskPath+"/comments", alice, gin.H{"text": "Done"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, taskPath+"/comments", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]services.CommentView](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, "Alice", comments[0].AuthorName)

	w = do(t, r, http.MethodGet, taskPath, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Completed", decode[services.TaskView](t, w).Status)

	w = do(t, r, http.MethodDelete, taskPath, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, taskPath, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/projects", "/api/tasks", "/api/notifications", "/api/users/profile", "/api/auth/me"} {
		w := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotEmpty(t, decode[gin.H](t, w)["message"], path)
	}

	w := do(t, r, http.MethodGet, "/api/projects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := newTestRouter(t)
	signUp(t, r, "Alice")

	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Other", "email": "Alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", decode[gin.H](t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "Alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
