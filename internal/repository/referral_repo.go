package repository

import (
	"context"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralRepository handles referral link data access
type ReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new ReferralRepository
func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create creates a referral link; the (referrer, referee) pair is unique
func (r *ReferralRepository) Create(ctx context.Context, ref *models.Referral) error {
	return translate(r.db.WithContext(ctx).Create(ref).Error, ErrReferralNotFound)
}

// GetByPair retrieves the link between a referrer and a referee
func (r *ReferralRepository) GetByPair(ctx context.Context, referrerID, refereeID uint) (*models.Referral, error) {
	var ref models.Referral
	result := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referee_id = ?", referrerID, refereeID).
		First(&ref)
	if result.Error != nil {
		return nil, translate(result.Error, ErrReferralNotFound)
	}
	return &ref, nil
}

// AddEarnings increments the cumulative commission of a link
func (r *ReferralRepository) AddEarnings(ctx context.Context, id uint, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReferralNotFound
	}
	return nil
}

// ListByReferrer retrieves every link created by a referrer
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var refs []models.Referral
	result := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("created_at ASC").Find(&refs)
	return refs, result.Error
}

// DeleteByUser removes links where the user is either side
func (r *ReferralRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("referrer_id = ? OR referee_id = ?", userID, userID).
		Delete(&models.Referral{}).Error
}
