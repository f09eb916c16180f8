package handler

import (
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// PairHandler serves the trading pair catalog
type PairHandler struct {
	pairService *service.PairService
}

// NewPairHandler creates a new PairHandler
func NewPairHandler(pairService *service.PairService) *PairHandler {
	return &PairHandler{
		pairService: pairService,
	}
}

// ListPairs returns every pair with its latest price
// GET /api/v1/pairs
func (h *PairHandler) ListPairs(c *gin.Context) {
	pairs, err := h.pairService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, pairs)
}

// GetPair returns one pair with its latest price
// GET /api/v1/pairs/:id
func (h *PairHandler) GetPair(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	pair, err := h.pairService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, pair)
}

// RegisterRoutes registers pair routes
func (h *PairHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pairs := rg.Group("/pairs")
	{
		pairs.GET("", h.ListPairs)
		pairs.GET("/:id", h.GetPair)
	}
}
