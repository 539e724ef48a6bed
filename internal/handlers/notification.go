package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/utils"
)

func (h *Handler) ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))

	list, err := h.Notifications.List(ctx.Request.Context(), userID, ctx.Query("unread") == "true", limit)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *Handler) UnreadCount(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	n, err := h.Notifications.UnreadCount(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	id, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid notification ID")
		return
	}

	if err := h.Notifications.MarkRead(ctx.Request.Context(), userID, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	n, err := h.Notifications.MarkAllRead(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "All notifications marked as read", "updated": n})
}

func (h *Handler) DeleteNotification(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	id, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid notification ID")
		return
	}

	if err := h.Notifications.Delete(ctx.Request.Context(), userID, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted"})
}
