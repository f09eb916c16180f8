package handler

import (
	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/internal/stream"
	"github.com/gin-gonic/gin"
)

// StreamHandler upgrades clients to the live event feed
type StreamHandler struct {
	hub         *stream.Hub
	pairService *service.PairService
	ledger      *service.Ledger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(hub *stream.Hub, pairService *service.PairService, ledger *service.Ledger) *StreamHandler {
	return &StreamHandler{
		hub:         hub,
		pairService: pairService,
		ledger:      ledger,
	}
}

// Stream opens a websocket. The latest price of every pair and the
// caller's balances are sent first.
// GET /api/v1/stream?token=...
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var initial []stream.Event
	for _, tick := range h.pairService.Snapshot() {
		initial = append(initial, stream.NewEvent(stream.EventPrice, tick))
	}
	if balances, err := h.ledger.Balances(c.Request.Context(), userID); err == nil {
		initial = append(initial, stream.NewEvent(stream.EventBalance, balances))
	}

	// the upgrader writes its own error response
	if err := h.hub.Serve(c.Writer, c.Request, userID, initial); err != nil {
		logger.Debug("websocket upgrade failed", "user_id", userID, "error", err)
	}
}

// RegisterRoutes registers the stream route
func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	rg.GET("/stream", authMiddleware, h.Stream)
}
