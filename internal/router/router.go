package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/middleware"
)

func NewRouter(h *handlers.Handler, tokens *auth.TokenManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.Auth(tokens, h.DB)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.GET("/me", requireAuth, h.Me)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:id", h.GetProject)
			projects.PUT("/:id", h.UpdateProject)
			projects.DELETE("/:id", h.DeleteProject)
			projects.GET("/:id/attachments", h.ListProjectAttachments)
			projects.POST("/:id/attachments", h.UploadProjectAttachment)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.POST("", h.CreateTask)
			tasks.GET("", h.ListTasks)
			tasks.GET("/:id", h.GetTask)
			tasks.PUT("/:id", h.UpdateTask)
			tasks.DELETE("/:id", h.DeleteTask)
			tasks.GET("/:id/comments", h.ListComments)
			tasks.POST("/:id/comments", h.AddComment)
			tasks.DELETE("/:id/comments/:commentId", h.DeleteComment)
			tasks.GET("/:id/attachments", h.ListTaskAttachments)
			tasks.POST("/:id/attachments", h.UploadTaskAttachment)
		}

		attachments := api.Group("/attachments", requireAuth)
		{
			attachments.GET("/:id/download", h.DownloadAttachment)
			attachments.DELETE("/:id", h.DeleteAttachment)
		}

		notifications := api.Group("/notifications", requireAuth)
		{
			notifications.GET("", h.ListNotifications)
			notifications.GET("/unread-count", h.UnreadCount)
			notifications.GET("/ws", h.NotificationSocket)
			notifications.PUT("/read-all", h.MarkAllNotificationsRead)
			notifications.PUT("/:id/read", h.MarkNotificationRead)
			notifications.DELETE("/:id", h.DeleteNotification)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/profile", h.GetProfile)
			users.PUT("/profile", h.UpdateProfile)
			users.PUT("/profile/preferences", h.UpdatePreferences)
			users.GET("/all", h.ListUsers)
		}
	}

	return r
}
