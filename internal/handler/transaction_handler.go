package handler

import (
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles deposit and withdrawal requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// CreateTransaction submits a deposit or withdrawal for review
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tx, err := h.transactionService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, tx)
}

// ListTransactions lists the caller's transactions
// GET /api/v1/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)

	txs, total, err := h.transactionService.ListByUser(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPaginated(c, txs, total, page, pageSize)
}

// RegisterRoutes registers transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	txs := rg.Group("/transactions")
	txs.Use(authMiddleware)
	{
		txs.POST("", h.CreateTransaction)
		txs.GET("", h.ListTransactions)
	}
}
