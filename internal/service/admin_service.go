package service

import (
	"context"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
)

// AdminService backs the admin console
type AdminService struct {
	store   repository.Store
	ledger  *Ledger
	trading *TradingService
}

// NewAdminService creates a new AdminService
func NewAdminService(store repository.Store, ledger *Ledger, trading *TradingService) *AdminService {
	return &AdminService{store: store, ledger: ledger, trading: trading}
}

// UpdateFlagsRequest toggles account flags; nil fields are left untouched
type UpdateFlagsRequest struct {
	IsQuickTradeLocked   *bool   `json:"is_quick_trade_locked"`
	IsCopyTradingEnabled *bool   `json:"is_copy_trading_enabled"`
	IsAdmin              *bool   `json:"is_admin"`
	FullName             *string `json:"full_name" binding:"omitempty,min=2,max=100"`
}

// PlatformStats summarizes the platform for the admin dashboard
type PlatformStats struct {
	Users               int64 `json:"users"`
	OpenTrades          int64 `json:"open_trades"`
	PendingTransactions int64 `json:"pending_transactions"`
}

// ListUsers returns users, newest first
func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	return s.store.Users().List(ctx, page, pageSize)
}

// GetUser returns a user by ID
func (s *AdminService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// UpdateBalance overwrites a user's balances
func (s *AdminService) UpdateBalance(ctx context.Context, id uint, upd BalanceUpdate) (*models.User, error) {
	user, err := s.ledger.UpdateBalance(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	logger.Info("balances overwritten by admin", "user_id", id)
	return user, nil
}

// UpdateFlags applies the given flag changes
func (s *AdminService) UpdateFlags(ctx context.Context, id uint, req *UpdateFlagsRequest) (*models.User, error) {
	var user *models.User
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		u, err := r.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.IsQuickTradeLocked != nil {
			u.IsQuickTradeLocked = *req.IsQuickTradeLocked
		}
		if req.IsCopyTradingEnabled != nil {
			u.IsCopyTradingEnabled = *req.IsCopyTradingEnabled
		}
		if req.IsAdmin != nil {
			u.IsAdmin = *req.IsAdmin
		}
		if req.FullName != nil {
			u.FullName = *req.FullName
		}
		if err := r.Users().UpdateProfile(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user with their trades, transactions, conversions
// and referral links. Users they referred keep their accounts but lose the
// referrer.
func (s *AdminService) DeleteUser(ctx context.Context, id uint) error {
	var openTrades []uint
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		if _, err := r.Users().GetByID(ctx, id); err != nil {
			return err
		}

		open, err := r.Trades().ListOpen(ctx)
		if err != nil {
			return err
		}
		for _, t := range open {
			if t.UserID == id {
				openTrades = append(openTrades, t.ID)
			}
		}

		if err := r.Trades().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := r.Transactions().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := r.Conversions().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := r.Referrals().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := r.Users().ClearReferredBy(ctx, id); err != nil {
			return err
		}
		return r.Users().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, tradeID := range openTrades {
		s.trading.scheduler.Cancel(tradeID)
	}
	logger.Info("user deleted", "user_id", id, "cancelled_trades", len(openTrades))
	return nil
}

// Stats returns platform counters
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	users, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.store.Trades().CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.Transactions().CountByStatus(ctx, models.TransactionPending)
	if err != nil {
		return nil, err
	}
	return &PlatformStats{Users: users, OpenTrades: open, PendingTransactions: pending}, nil
}
