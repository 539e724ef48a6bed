package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/db"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx, h.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"message":   "Database unreachable",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Taskboard is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
