package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/monocle-dev/taskboard/internal/types"
)

const RequestIDHeader = "X-Request-ID"

// RequestID keeps a well formed incoming X-Request-ID or assigns a new one,
// and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)

		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		ctx.Set(types.ContextRequestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}
