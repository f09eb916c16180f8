package handler

import (
	"errors"
	"strings"

	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves signup, login and token refresh
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an account credited with the starter balances. A
// referral_code links the new account to its referrer.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		response.BadRequest(c, err.Error())
	case err != nil:
		handleServiceError(c, err)
	default:
		response.Created(c, user)
	}
}

// Login exchanges credentials for an access token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.auth.Login(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case err != nil:
		handleServiceError(c, err)
	default:
		response.Success(c, token)
	}
}

// RefreshToken reissues a token with the account's current admin flag. The
// old token comes from the body or, when the body is empty, the
// Authorization header.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	if req.Token == "" {
		req.Token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}
	if req.Token == "" {
		response.BadRequest(c, "token is required")
		return
	}

	token, err := h.auth.RefreshToken(c.Request.Context(), req.Token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	response.Success(c, token)
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.RefreshToken)
}
