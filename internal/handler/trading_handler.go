package handler

import (
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// TradingHandler handles quick trade API requests
type TradingHandler struct {
	tradingService *service.TradingService
}

// NewTradingHandler creates a new TradingHandler
func NewTradingHandler(tradingService *service.TradingService) *TradingHandler {
	return &TradingHandler{
		tradingService: tradingService,
	}
}

// OpenTrade opens a quick trade for the caller
// POST /api/v1/trades
func (h *TradingHandler) OpenTrade(c *gin.Context) {
	var req service.OpenTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.UserID = middleware.GetUserID(c)

	result, err := h.tradingService.OpenTrade(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListTrades lists the caller's trades
// GET /api/v1/trades
func (h *TradingHandler) ListTrades(c *gin.Context) {
	page, pageSize := pagination(c)

	trades, total, err := h.tradingService.ListTrades(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPaginated(c, trades, total, page, pageSize)
}

// GetTrade returns one of the caller's trades
// GET /api/v1/trades/:id
func (h *TradingHandler) GetTrade(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	trade, err := h.tradingService.GetTrade(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if trade.UserID != middleware.GetUserID(c) && !middleware.IsAdmin(c) {
		response.NotFound(c, "trade not found")
		return
	}

	response.Success(c, trade)
}

// CloseTrade closes an open trade. Owners may close their own trades;
// admins may close any.
// POST /api/v1/trades/:id/close
func (h *TradingHandler) CloseTrade(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.CloseTradeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	trade, err := h.tradingService.GetTrade(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if trade.UserID != middleware.GetUserID(c) && !middleware.IsAdmin(c) {
		response.NotFound(c, "trade not found")
		return
	}
	// only admins may dictate the outcome
	if !middleware.IsAdmin(c) {
		req.Pnl = nil
		req.IsProfit = nil
	}

	result, err := h.tradingService.CloseTrade(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// RegisterRoutes registers trading routes
func (h *TradingHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	trades := rg.Group("/trades")
	trades.Use(authMiddleware)
	{
		trades.POST("", h.OpenTrade)
		trades.GET("", h.ListTrades)
		trades.GET("/:id", h.GetTrade)
		trades.POST("/:id/close", h.CloseTrade)
	}
}
