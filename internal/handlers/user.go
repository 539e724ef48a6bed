package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type UpdateProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"omitempty,min=8"`
}

func (h *Handler) GetProfile(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	profile, err := h.Users.Profile(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	var body UpdateProfileRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request")
		return
	}

	profile, err := h.Users.UpdateProfile(ctx.Request.Context(), userID, services.UpdateProfileInput{
		Name:            body.Name,
		Email:           body.Email,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated successfully", "user": profile})
}

// UpdatePreferences starts from the stored switches so that a partial body
// only flips the flags it names.
func (h *Handler) UpdatePreferences(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	current, err := h.Users.Profile(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	prefs := current.NotificationPreferences

	if err := ctx.ShouldBindJSON(&prefs); err != nil {
		badRequest(ctx, "Invalid request")
		return
	}

	profile, err := h.Users.UpdatePreferences(ctx.Request.Context(), userID, prefs)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Preferences updated successfully", "notificationPreferences": profile.NotificationPreferences})
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	users, err := h.Users.ListAll(ctx.Request.Context())

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}
