package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type CreateTaskRequest struct {
	ProjectID   *uint  `json:"projectId"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	AssigneeID  *uint  `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssigneeID  *uint   `json:"assigneeId"`
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Task title is required")
		return
	}

	dueDate, err := utils.ParseDate(body.DueDate)

	if err != nil {
		badRequest(ctx, "Invalid due date")
		return
	}

	task, err := h.Tasks.Create(ctx.Request.Context(), userID, services.CreateTaskInput{
		ProjectID:   body.ProjectID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		DueDate:     dueDate,
		AssigneeID:  body.AssigneeID,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "message": "Task created successfully", "task": task})
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetOptionalIDQuery(ctx, "projectId")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	tasks, err := h.Tasks.List(ctx.Request.Context(), userID, services.TaskFilter{
		ProjectID:    projectID,
		Status:       ctx.Query("status"),
		AssignedOnly: ctx.Query("assigned") == "true",
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	taskID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid task ID")
		return
	}

	task, err := h.Tasks.Get(ctx.Request.Context(), userID, taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	taskID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid task ID")
		return
	}

	var body UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request")
		return
	}

	in := services.UpdateTaskInput{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		AssigneeID:  body.AssigneeID,
	}

	if body.DueDate != nil {
		if in.DueDate, err = utils.ParseDate(*body.DueDate); err != nil {
			badRequest(ctx, "Invalid due date")
			return
		}
	}

	task, err := h.Tasks.Update(ctx.Request.Context(), userID, taskID, in)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Task updated successfully", "task": task})
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	taskID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid task ID")
		return
	}

	if err := h.Tasks.Delete(ctx.Request.Context(), userID, taskID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
}
