package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/gorm"
)

type AuthenticatedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Auth requires a valid bearer token and stores the AuthenticatedUser under
// types.ContextUserKey. The websocket endpoint may pass the token as a
// "token" query parameter instead.
func Auth(tokens *auth.TokenManager, db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token is required"})
			return
		}

		claims, err := tokens.Verify(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		var user models.User

		if err := db.WithContext(ctx.Request.Context()).Select("id", "name", "email").First(&user, claims.UserID).Error; err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if token := ctx.Query("token"); token != "" && ctx.IsWebsocket() {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}
