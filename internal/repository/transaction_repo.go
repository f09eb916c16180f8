package repository

import (
	"context"

	"github.com/edgemarket/internal/models"
	"gorm.io/gorm"
)

// TransactionRepository handles deposit/withdrawal data access
type TransactionRepository struct {
	db      *gorm.DB
	locking bool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	result := forUpdate(r.db.WithContext(ctx), r.locking).First(&tx, id)
	if result.Error != nil {
		return nil, translate(result.Error, ErrTransactionNotFound)
	}
	return &tx, nil
}

// MarkProcessed stores the review outcome of a PENDING transaction
func (r *TransactionRepository) MarkProcessed(ctx context.Context, tx *models.Transaction) error {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", tx.ID, models.TransactionPending).
		Updates(map[string]interface{}{
			"status":       tx.Status,
			"admin_notes":  tx.AdminNotes,
			"processed_by": tx.ProcessedBy,
			"processed_at": tx.ProcessedAt,
			"updated_at":   tx.ProcessedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

// ListByUser retrieves transactions of a user with pagination
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), page, pageSize)
}

// List retrieves transactions, optionally filtered by status
func (r *TransactionRepository) List(ctx context.Context, status models.TransactionStatus, page, pageSize int) ([]models.Transaction, int64, error) {
	db := r.db.WithContext(ctx)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	return r.list(db, page, pageSize)
}

func (r *TransactionRepository) list(db *gorm.DB, page, pageSize int) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	db = db.Session(&gorm.Session{})
	if err := db.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := Paginate(page, pageSize)
	result := db.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs)

	return txs, total, result.Error
}

// CountByStatus counts transactions in a given state
func (r *TransactionRepository) CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// DeleteByUser removes all transactions of a user
func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Transaction{}).Error
}
