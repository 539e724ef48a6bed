package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/types"
)

// respondError maps service errors onto status codes. Unexpected errors are
// logged and answered with a generic message.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	_ = ctx.Error(err)

	if status == http.StatusInternalServerError {
		logutils.WithComponent("http").WithFields(logutils.Fields{
			"path":       ctx.Request.URL.Path,
			"request_id": ctx.GetString(types.ContextRequestIDKey),
			"error":      err,
		}).Error("Request failed")

		ctx.JSON(status, gin.H{"message": "Internal server error"})
		return
	}

	message := err.Error()

	var serviceErr *services.Error
	if errors.As(err, &serviceErr) {
		message = serviceErr.Message
	}

	ctx.JSON(status, gin.H{"message": message})
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"message": message})
}

func unauthenticated(ctx *gin.Context) {
	ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
}
