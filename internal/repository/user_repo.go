package repository

import (
	"context"
	"time"

	"github.com/edgemarket/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles user data access
type UserRepository struct {
	db      *gorm.DB
	locking bool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, ErrUserNotFound)
}

// GetByID retrieves a user by ID, locking the row inside a unit of work
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := forUpdate(r.db.WithContext(ctx), r.locking).First(&user, id)
	if result.Error != nil {
		return nil, translate(result.Error, ErrUserNotFound)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, translate(result.Error, ErrUserNotFound)
	}
	return &user, nil
}

// GetByReferralCode retrieves a user by referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user)
	if result.Error != nil {
		return nil, translate(result.Error, ErrUserNotFound)
	}
	return &user, nil
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := Paginate(page, pageSize)
	result := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users)

	return users, total, result.Error
}

// ListByReferrer retrieves every user invited by referrerID
func (r *UserRepository) ListByReferrer(ctx context.Context, referrerID uint) ([]models.User, error) {
	var users []models.User
	result := r.db.WithContext(ctx).Where("referred_by = ?", referrerID).Order("created_at ASC").Find(&users)
	return users, result.Error
}

// SaveBalances writes the ledger fields with an optimistic version check
func (r *UserRepository) SaveBalances(ctx context.Context, user *models.User) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"total_balance":     user.TotalBalance,
			"trading_balance":   user.TradingBalance,
			"profit":            user.Profit,
			"referral_earnings": user.ReferralEarnings,
			"trade_count":       user.TradeCount,
			"version":           user.Version + 1,
			"updated_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	user.Version++
	user.UpdatedAt = now
	return nil
}

// UpdateProfile writes the non-monetary fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"full_name":               user.FullName,
			"is_admin":                user.IsAdmin,
			"is_quick_trade_locked":   user.IsQuickTradeLocked,
			"is_copy_trading_enabled": user.IsCopyTradingEnabled,
			"referred_by":             user.ReferredBy,
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearReferredBy detaches every referee of referrerID
func (r *UserRepository) ClearReferredBy(ctx context.Context, referrerID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("referred_by = ?", referrerID).
		Update("referred_by", nil).Error
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count counts all users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
