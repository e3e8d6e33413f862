package controller

import (
	"errors"
	"strings"

	"github.com/harshaislive/bespoke/internal/service"
	"github.com/harshaislive/bespoke/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// MagicLinkRequest asks for a passwordless sign-in link.
// swagger:model MagicLinkRequest
type MagicLinkRequest struct {
	Email      string `json:"email" binding:"required,email"`
	RedirectTo string `json:"redirectTo" binding:"required,url"`
}

// RequestMagicLink godoc
// @Summary Request a magic sign-in link
// @Description Emails a one-time sign-in link to the given address
// @Tags auth
// @Accept json
// @Produce json
// @Param body body MagicLinkRequest true "email and redirect target"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/auth/magic-link [post]
func (c *AuthController) RequestMagicLink(ctx *gin.Context) {
	var req MagicLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.RequestMagicLink(ctx.Request.Context(), req.Email, req.RedirectTo); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"sent": true})
}

// VerifyRequest exchanges a link token for a session token.
type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// Verify godoc
// @Summary Verify a magic link token
// @Description One-time exchange of a link token for a signed session token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyRequest true "link token"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /api/auth/verify [post]
func (c *AuthController) Verify(ctx *gin.Context) {
	var req VerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.VerifyMagicLink(ctx.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, util.ErrInvalidLinkToken) || errors.Is(err, util.ErrUserNotFound) {
			util.Error(ctx, 401, "The sign-in link is invalid or has expired")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user":  user,
	})
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the presented session token
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/auth/signout [post]
func (c *AuthController) SignOut(ctx *gin.Context) {
	raw := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	if raw == "" {
		util.Unauthorized(ctx)
		return
	}

	if err := c.AuthService.SignOut(ctx.Request.Context(), raw); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"signedOut": true})
}

// GetProfile godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, user)
}
