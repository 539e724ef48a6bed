package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/middleware"
	"github.com/monocle-dev/taskboard/internal/types"
)

var (
	ErrNotAuthenticated = errors.New("User not authenticated")
	ErrBadContextUser   = errors.New("Invalid user type in context")
)

// GetCurrentUser returns the user that middleware.Auth stored under
// types.ContextUserKey. Routes outside the auth group get ErrNotAuthenticated.
func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)
	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)
	if !ok || user.ID == 0 {
		return middleware.AuthenticatedUser{}, ErrBadContextUser
	}

	return user, nil
}

// GetCurrentUserID is GetCurrentUser for handlers that only need the id.
func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)
	if err != nil {
		return 0, err
	}

	return user.ID, nil
}
