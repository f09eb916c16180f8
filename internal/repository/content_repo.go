package repository

import (
	"context"

	"github.com/edgemarket/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewsRepository handles news data access
type NewsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a new NewsRepository
func NewNewsRepository(db *gorm.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// Create creates a news item
func (r *NewsRepository) Create(ctx context.Context, news *models.News) error {
	return r.db.WithContext(ctx).Create(news).Error
}

// GetByID retrieves a news item by ID
func (r *NewsRepository) GetByID(ctx context.Context, id uint) (*models.News, error) {
	var news models.News
	result := r.db.WithContext(ctx).First(&news, id)
	if result.Error != nil {
		return nil, translate(result.Error, ErrNewsNotFound)
	}
	return &news, nil
}

// List retrieves news, newest first
func (r *NewsRepository) List(ctx context.Context, publishedOnly bool) ([]models.News, error) {
	var items []models.News
	db := r.db.WithContext(ctx)
	if publishedOnly {
		db = db.Where("is_published = ?", true)
	}
	result := db.Order("created_at DESC, id DESC").Find(&items)
	return items, result.Error
}

// Update saves a news item
func (r *NewsRepository) Update(ctx context.Context, news *models.News) error {
	return r.db.WithContext(ctx).Save(news).Error
}

// Delete removes a news item
func (r *NewsRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.News{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNewsNotFound
	}
	return nil
}

// WalletRepository handles deposit address data access
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Upsert creates or replaces the address for a currency
func (r *WalletRepository) Upsert(ctx context.Context, wallet *models.WalletAddress) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"network", "address", "updated_at"}),
	}).Create(wallet).Error
}

// List retrieves all deposit addresses
func (r *WalletRepository) List(ctx context.Context) ([]models.WalletAddress, error) {
	var wallets []models.WalletAddress
	result := r.db.WithContext(ctx).Order("currency ASC").Find(&wallets)
	return wallets, result.Error
}

// Delete removes the address for a currency
func (r *WalletRepository) Delete(ctx context.Context, currency string) error {
	result := r.db.WithContext(ctx).Where("currency = ?", currency).Delete(&models.WalletAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}
