package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService runs the deposit/withdrawal approval workflow
type TransactionService struct {
	store  repository.Store
	ledger *Ledger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(store repository.Store, ledger *Ledger) *TransactionService {
	return &TransactionService{store: store, ledger: ledger}
}

// CreateTransactionRequest represents a deposit or withdrawal request
type CreateTransactionRequest struct {
	Type     models.TransactionType `json:"type" binding:"required"`
	Amount   decimal.Decimal        `json:"amount"`
	Method   string                 `json:"method" binding:"max=50"`
	Currency string                 `json:"currency" binding:"omitempty,max=10"`
	Address  string                 `json:"address" binding:"omitempty,max=255"`
}

// ReviewRequest carries the admin's notes on approve or reject
type ReviewRequest struct {
	AdminNotes string `json:"admin_notes" binding:"max=500"`
}

// ReviewResult reports the outcome of an approve or reject. Applied is
// false when the transaction had already been processed.
type ReviewResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Applied     bool                `json:"applied"`
	Balances    *models.Balances    `json:"balances,omitempty"`
}

// Create records a PENDING request. Balances are untouched until approval.
func (s *TransactionService) Create(ctx context.Context, userID uint, req *CreateTransactionRequest) (*models.Transaction, error) {
	if req.Type != models.TransactionDeposit && req.Type != models.TransactionWithdrawal {
		return nil, ErrInvalidTransactionType
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, ErrMissingMethod
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Reference: uuid.New().String(),
		UserID:    userID,
		Type:      req.Type,
		Amount:    req.Amount,
		Method:    method,
		Currency:  currency,
		Address:   strings.TrimSpace(req.Address),
		Status:    models.TransactionPending,
	}
	if err := s.store.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("transaction requested",
		"transaction_id", tx.ID, "user_id", userID, "type", tx.Type, "amount", tx.Amount.String())
	return tx, nil
}

// Approve marks a pending transaction APPROVED and applies it to the
// user's total balance. Withdrawals floor the balance at zero.
func (s *TransactionService) Approve(ctx context.Context, id, adminID uint, notes string) (*ReviewResult, error) {
	return s.review(ctx, id, adminID, notes, models.TransactionApproved)
}

// Reject marks a pending transaction REJECTED without touching balances.
func (s *TransactionService) Reject(ctx context.Context, id, adminID uint, notes string) (*ReviewResult, error) {
	return s.review(ctx, id, adminID, notes, models.TransactionRejected)
}

func (s *TransactionService) review(ctx context.Context, id, adminID uint, notes string, status models.TransactionStatus) (*ReviewResult, error) {
	result := &ReviewResult{}
	var user *models.User

	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		tx, err := r.Transactions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		result.Transaction = tx
		if !tx.IsPending() {
			return nil
		}

		now := time.Now()
		tx.Status = status
		tx.AdminNotes = notes
		tx.ProcessedBy = &adminID
		tx.ProcessedAt = &now
		if err := r.Transactions().MarkProcessed(ctx, tx); err != nil {
			return err
		}

		if status == models.TransactionApproved {
			delta := Delta{Total: tx.Amount}
			if tx.Type == models.TransactionWithdrawal {
				delta = Delta{Total: tx.Amount.Neg(), FloorTotal: true}
			}
			if user, err = s.ledger.Apply(ctx, r, tx.UserID, delta); err != nil {
				return err
			}
			balances := user.Balances()
			result.Balances = &balances
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return s.current(ctx, id, err)
		}
		return nil, err
	}

	if result.Applied {
		logger.Info("transaction processed",
			"transaction_id", id, "status", status, "admin_id", adminID)
		s.ledger.publish(user)
	}
	return result, nil
}

// current reports the stored state of a transaction another reviewer
// processed first. A transaction that is still pending lost a race on the
// user row instead, and cause is returned.
func (s *TransactionService) current(ctx context.Context, id uint, cause error) (*ReviewResult, error) {
	tx, err := s.store.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsPending() {
		return nil, cause
	}
	return &ReviewResult{Transaction: tx}, nil
}

// Get returns a transaction by ID
func (s *TransactionService) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	return s.store.Transactions().GetByID(ctx, id)
}

// ListByUser returns a user's transactions, newest first
func (s *TransactionService) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	return s.store.Transactions().ListByUser(ctx, userID, page, pageSize)
}

// List returns all transactions, optionally filtered by status
func (s *TransactionService) List(ctx context.Context, status models.TransactionStatus, page, pageSize int) ([]models.Transaction, int64, error) {
	return s.store.Transactions().List(ctx, status, page, pageSize)
}
