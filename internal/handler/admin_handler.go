package handler

import (
	"context"
	"strings"

	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles the admin console API
type AdminHandler struct {
	adminService       *service.AdminService
	transactionService *service.TransactionService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *service.AdminService, transactionService *service.TransactionService) *AdminHandler {
	return &AdminHandler{
		adminService:       adminService,
		transactionService: transactionService,
	}
}

// ListUsers lists users
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)

	users, total, err := h.adminService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPaginated(c, users, total, page, pageSize)
}

// GetUser returns a user
// GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, user)
}

// UpdateBalance overwrites a user's balances
// PUT /api/v1/admin/users/:id/balance
func (h *AdminHandler) UpdateBalance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.BalanceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.adminService.UpdateBalance(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, user)
}

// UpdateFlags toggles account flags
// PUT /api/v1/admin/users/:id/flags
func (h *AdminHandler) UpdateFlags(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.adminService.UpdateFlags(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, user)
}

// DeleteUser removes a user and their records
// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if id == middleware.GetUserID(c) {
		response.BadRequest(c, "cannot delete your own account")
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// ListTransactions lists transactions, optionally by status
// GET /api/v1/admin/transactions?status=PENDING
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)

	status := models.TransactionStatus(strings.ToUpper(c.Query("status")))
	switch status {
	case "", models.TransactionPending, models.TransactionApproved, models.TransactionRejected:
	default:
		response.BadRequest(c, "invalid status")
		return
	}

	txs, total, err := h.transactionService.List(c.Request.Context(), status, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPaginated(c, txs, total, page, pageSize)
}

// GetTransaction returns a transaction
// GET /api/v1/admin/transactions/:id
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tx, err := h.transactionService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, tx)
}

// ApproveTransaction approves a pending transaction
// POST /api/v1/admin/transactions/:id/approve
func (h *AdminHandler) ApproveTransaction(c *gin.Context) {
	h.review(c, h.transactionService.Approve)
}

// RejectTransaction rejects a pending transaction
// POST /api/v1/admin/transactions/:id/reject
func (h *AdminHandler) RejectTransaction(c *gin.Context) {
	h.review(c, h.transactionService.Reject)
}

type reviewFunc func(ctx context.Context, id, adminID uint, notes string) (*service.ReviewResult, error)

func (h *AdminHandler) review(c *gin.Context, fn reviewFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := fn(c.Request.Context(), id, middleware.GetUserID(c), req.AdminNotes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// Stats returns platform counters
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, stats)
}

// RegisterRoutes registers admin routes on an already guarded group
func (h *AdminHandler) RegisterRoutes(admin *gin.RouterGroup) {
	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id/balance", h.UpdateBalance)
		users.PUT("/:id/flags", h.UpdateFlags)
		users.DELETE("/:id", h.DeleteUser)
	}

	txs := admin.Group("/transactions")
	{
		txs.GET("", h.ListTransactions)
		txs.GET("/:id", h.GetTransaction)
		txs.POST("/:id/approve", h.ApproveTransaction)
		txs.POST("/:id/reject", h.RejectTransaction)
	}

	admin.GET("/stats", h.Stats)
}
