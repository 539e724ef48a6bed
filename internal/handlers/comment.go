package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) AddComment(ctx *gin.Context) {
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

	var body CommentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Comment text is required")
		return
	}

	comment, err := h.Comments.Add(ctx.Request.Context(), userID, taskID, body.Text)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "message": "Comment added successfully", "comment": comment})
}

func (h *Handler) ListComments(ctx *gin.Context) {
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

	comments, err := h.Comments.List(ctx.Request.Context(), userID, taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

func (h *Handler) DeleteComment(ctx *gin.Context) {
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

	commentID, err := utils.GetIDParam(ctx, "commentId")

	if err != nil {
		badRequest(ctx, "Invalid comment ID")
		return
	}

	if err := h.Comments.Delete(ctx.Request.Context(), userID, taskID, commentID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted successfully"})
}
