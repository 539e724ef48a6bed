package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Name, a valid email and a password of at least 8 characters are required")
		return
	}

	user, err := h.Users.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Email and password are required")
		return
	}

	res, err := h.Users.Login(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":    res.User.ID,
		"name":  res.User.Name,
		"email": res.User.Email,
		"token": res.Token,
	})
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": currentUser})
}
