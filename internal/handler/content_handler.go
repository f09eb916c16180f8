package handler

import (
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// ContentHandler serves news and deposit wallet addresses
type ContentHandler struct {
	contentService *service.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
	}
}

// ListNews returns published news
// GET /api/v1/news
func (h *ContentHandler) ListNews(c *gin.Context) {
	news, err := h.contentService.ListNews(c.Request.Context(), true)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, news)
}

// ListWallets returns the deposit addresses
// GET /api/v1/wallets
func (h *ContentHandler) ListWallets(c *gin.Context) {
	wallets, err := h.contentService.ListWallets(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, wallets)
}

// ListAllNews returns news including drafts
// GET /api/v1/admin/news
func (h *ContentHandler) ListAllNews(c *gin.Context) {
	news, err := h.contentService.ListNews(c.Request.Context(), false)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, news)
}

// CreateNews creates a news item
// POST /api/v1/admin/news
func (h *ContentHandler) CreateNews(c *gin.Context) {
	var req service.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	news, err := h.contentService.CreateNews(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, news)
}

// UpdateNews replaces a news item
// PUT /api/v1/admin/news/:id
func (h *ContentHandler) UpdateNews(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	news, err := h.contentService.UpdateNews(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, news)
}

// DeleteNews removes a news item
// DELETE /api/v1/admin/news/:id
func (h *ContentHandler) DeleteNews(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.contentService.DeleteNews(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetWallet creates or replaces a deposit address
// PUT /api/v1/admin/wallets
func (h *ContentHandler) SetWallet(c *gin.Context) {
	var req service.WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	wallet, err := h.contentService.SetWallet(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, wallet)
}

// DeleteWallet removes a deposit address
// DELETE /api/v1/admin/wallets/:currency
func (h *ContentHandler) DeleteWallet(c *gin.Context) {
	if err := h.contentService.DeleteWallet(c.Request.Context(), c.Param("currency")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// RegisterRoutes registers the public content routes
func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/news", h.ListNews)
	rg.GET("/wallets", h.ListWallets)
}

// RegisterAdminRoutes registers content management on an admin group
func (h *ContentHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/news", h.ListAllNews)
	admin.POST("/news", h.CreateNews)
	admin.PUT("/news/:id", h.UpdateNews)
	admin.DELETE("/news/:id", h.DeleteNews)
	admin.PUT("/wallets", h.SetWallet)
	admin.POST("/wallets", h.SetWallet)
	admin.DELETE("/wallets/:currency", h.DeleteWallet)
}
