package handler

import (
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// ConversionHandler handles transfers between balance buckets
type ConversionHandler struct {
	conversionService *service.ConversionService
}

// NewConversionHandler creates a new ConversionHandler
func NewConversionHandler(conversionService *service.ConversionService) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
	}
}

// Convert moves funds between two of the caller's buckets
// POST /api/v1/conversions
func (h *ConversionHandler) Convert(c *gin.Context) {
	var req service.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.conversionService.Convert(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListConversions lists the caller's conversions
// GET /api/v1/conversions
func (h *ConversionHandler) ListConversions(c *gin.Context) {
	page, pageSize := pagination(c)

	convs, total, err := h.conversionService.ListByUser(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPaginated(c, convs, total, page, pageSize)
}

// RegisterRoutes registers conversion routes
func (h *ConversionHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	convs := rg.Group("/conversions")
	convs.Use(authMiddleware)
	{
		convs.POST("", h.Convert)
		convs.GET("", h.ListConversions)
	}
}
