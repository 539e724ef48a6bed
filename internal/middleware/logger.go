package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/types"
)

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	log := logutils.WithComponent("http")

	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = ctx.Request.URL.Path
		}

		entry := log.WithFields(logutils.Fields{
			"method":     ctx.Request.Method,
			"path":       path,
			"status":     ctx.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": ctx.GetString(types.ContextRequestIDKey),
			"client_ip":  ctx.ClientIP(),
		})

		if len(ctx.Errors) > 0 {
			entry = entry.WithField("error", ctx.Errors.String())
		}

		switch status := ctx.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
