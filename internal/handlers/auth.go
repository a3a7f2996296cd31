package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/auth"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
)

// Register creates a new account with email and password
//
// POST /auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			util.RespondInternalError(c, "registration failed")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email and password
//
// POST /auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
			util.RespondUnauthorized(c, "invalid email or password")
			return
		}
		util.RespondInternalError(c, "login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's own account
//
// GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	actor, ok := c.Get("user")
	if !ok {
		util.RespondUnauthorized(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": actor.(*models.User)})
}
