package repository

import (
	"context"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PairRepository handles trading pair catalog access
type PairRepository struct {
	db *gorm.DB
}

// NewPairRepository creates a new PairRepository
func NewPairRepository(db *gorm.DB) *PairRepository {
	return &PairRepository{db: db}
}

// Create creates a new trading pair
func (r *PairRepository) Create(ctx context.Context, pair *models.TradingPair) error {
	return translate(r.db.WithContext(ctx).Create(pair).Error, ErrPairNotFound)
}

// GetByID retrieves a trading pair by ID
func (r *PairRepository) GetByID(ctx context.Context, id uint) (*models.TradingPair, error) {
	var pair models.TradingPair
	result := r.db.WithContext(ctx).First(&pair, id)
	if result.Error != nil {
		return nil, translate(result.Error, ErrPairNotFound)
	}
	return &pair, nil
}

// GetBySymbol retrieves a trading pair by symbol
func (r *PairRepository) GetBySymbol(ctx context.Context, symbol string) (*models.TradingPair, error) {
	var pair models.TradingPair
	result := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&pair)
	if result.Error != nil {
		return nil, translate(result.Error, ErrPairNotFound)
	}
	return &pair, nil
}

// List retrieves the whole catalog
func (r *PairRepository) List(ctx context.Context) ([]models.TradingPair, error) {
	var pairs []models.TradingPair
	result := r.db.WithContext(ctx).Order("id ASC").Find(&pairs)
	return pairs, result.Error
}

// UpdatePrice stores the latest simulated price
func (r *PairRepository) UpdatePrice(ctx context.Context, id uint, price decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.TradingPair{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_price": price,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPairNotFound
	}
	return nil
}
