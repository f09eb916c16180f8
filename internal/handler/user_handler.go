package handler

import (
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's own profile
type UserHandler struct {
	authService     *service.AuthService
	referralService *service.ReferralService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService *service.AuthService, referralService *service.ReferralService) *UserHandler {
	return &UserHandler{
		authService:     authService,
		referralService: referralService,
	}
}

// Me returns the caller's profile and balances
// GET /api/v1/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, user)
}

// Referrals returns the caller's referral summary
// GET /api/v1/me/referrals
func (h *UserHandler) Referrals(c *gin.Context) {
	summary, err := h.referralService.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, summary)
}

// CopyTrading reports whether copy trading is enabled for the caller
// GET /api/v1/me/copy-trading
func (h *UserHandler) CopyTrading(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"enabled": user.IsCopyTradingEnabled})
}

// RegisterRoutes registers profile routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	me := rg.Group("/me")
	me.Use(authMiddleware)
	{
		me.GET("", h.Me)
		me.GET("/referrals", h.Referrals)
		me.GET("/copy-trading", h.CopyTrading)
	}
}
