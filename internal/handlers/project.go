package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type ProjectTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	Assignee    string `json:"assignee"`
}

type CreateProjectRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	DueDate       string               `json:"dueDate"`
	Status        string               `json:"status"`
	AssignMembers string               `json:"assignMembers"`
	Tasks         []ProjectTaskRequest `json:"tasks"`
	Attachments   []AttachmentRequest  `json:"attachments"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
	MemberIDs   *[]uint `json:"memberIds"`
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Project name is required")
		return
	}

	dueDate, err := utils.ParseDate(body.DueDate)

	if err != nil {
		badRequest(ctx, "Invalid due date")
		return
	}

	tasks := make([]services.ProjectTaskInput, 0, len(body.Tasks))

	for _, t := range body.Tasks {
		taskDue, err := utils.ParseDate(t.DueDate)

		if err != nil {
			badRequest(ctx, "Invalid due date for task "+t.Title)
			return
		}

		tasks = append(tasks, services.ProjectTaskInput{
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     taskDue,
			Assignee:    t.Assignee,
		})
	}

	uploads, err := decodeAttachments(body.Attachments)

	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	res, err := h.Projects.Create(ctx.Request.Context(), userID, services.CreateProjectInput{
		Name:          body.Name,
		Description:   body.Description,
		DueDate:       dueDate,
		Status:        body.Status,
		AssignMembers: body.AssignMembers,
		Tasks:         tasks,
		Attachments:   uploads,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	unresolved := res.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"message":           "Project created successfully",
		"projectId":         res.ProjectID,
		"unresolvedMembers": unresolved,
	})
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projects, err := h.Projects.List(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	details, err := h.Projects.Details(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, details)
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request")
		return
	}

	in := services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
		MemberIDs:   body.MemberIDs,
	}

	if body.DueDate != nil {
		if in.DueDate, err = utils.ParseDate(*body.DueDate); err != nil {
			badRequest(ctx, "Invalid due date")
			return
		}
	}

	if err := h.Projects.Update(ctx.Request.Context(), userID, projectID, in); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Project updated successfully"})
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	if err := h.Projects.Delete(ctx.Request.Context(), userID, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Project deleted successfully"})
}

func (h *Handler) UploadProjectAttachment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	up, err := readUpload(ctx)

	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	view, err := h.Projects.UploadAttachment(ctx.Request.Context(), userID, projectID, up)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "message": "File uploaded successfully", "attachment": view})
}

func (h *Handler) ListProjectAttachments(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	projectID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid project ID")
		return
	}

	list, err := h.Projects.ListAttachments(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}
