package repository

import (
	"context"

	"github.com/edgemarket/internal/models"
	"gorm.io/gorm"
)

// TradeRepository handles trade data access
type TradeRepository struct {
	db      *gorm.DB
	locking bool
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create creates a new trade
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uint) (*models.Trade, error) {
	var trade models.Trade
	result := forUpdate(r.db.WithContext(ctx), r.locking).First(&trade, id)
	if result.Error != nil {
		return nil, translate(result.Error, ErrTradeNotFound)
	}
	return &trade, nil
}

// MarkClosed persists the settlement; it fails with ErrStaleRecord when
// another caller already closed the trade.
func (r *TradeRepository) MarkClosed(ctx context.Context, trade *models.Trade) error {
	result := r.db.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ? AND status = ?", trade.ID, models.TradeStatusOpen).
		Updates(map[string]interface{}{
			"status":     models.TradeStatusClosed,
			"exit_price": trade.ExitPrice,
			"pnl":        trade.Pnl,
			"is_profit":  trade.IsProfit,
			"closed_at":  trade.ClosedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	trade.Status = models.TradeStatusClosed
	return nil
}

// ListByUser retrieves trades for a user with pagination
func (r *TradeRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Trade, int64, error) {
	var trades []models.Trade
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Trade{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := Paginate(page, pageSize)
	result := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&trades)

	return trades, total, result.Error
}

// ListOpen retrieves every trade still awaiting settlement
func (r *TradeRepository) ListOpen(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	result := r.db.WithContext(ctx).Where("status = ?", models.TradeStatusOpen).Order("created_at ASC").Find(&trades)
	return trades, result.Error
}

// CountOpen counts unsettled trades
func (r *TradeRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Trade{}).Where("status = ?", models.TradeStatusOpen).Count(&count).Error
	return count, err
}

// DeleteByUser removes all trades of a user
func (r *TradeRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Trade{}).Error
}
