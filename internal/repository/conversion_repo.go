package repository

import (
	"context"

	"github.com/edgemarket/internal/models"
	"gorm.io/gorm"
)

// ConversionRepository handles conversion record data access
type ConversionRepository struct {
	db *gorm.DB
}

// NewConversionRepository creates a new ConversionRepository
func NewConversionRepository(db *gorm.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

// Create creates a new conversion record
func (r *ConversionRepository) Create(ctx context.Context, conv *models.Conversion) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

// ListByUser retrieves conversions of a user with pagination
func (r *ConversionRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Conversion, int64, error) {
	var convs []models.Conversion
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Conversion{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := Paginate(page, pageSize)
	result := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&convs)

	return convs, total, result.Error
}

// DeleteByUser removes all conversions of a user
func (r *ConversionRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Conversion{}).Error
}
