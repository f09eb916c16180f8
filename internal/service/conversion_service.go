package service

import (
	"context"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

// ConversionService moves funds between a user's balance buckets
type ConversionService struct {
	store  repository.Store
	ledger *Ledger
}

// NewConversionService creates a new ConversionService
func NewConversionService(store repository.Store, ledger *Ledger) *ConversionService {
	return &ConversionService{store: store, ledger: ledger}
}

// ConvertRequest represents a transfer between two buckets
type ConvertRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	FromType models.Bucket   `json:"from_type" binding:"required"`
	ToType   models.Bucket   `json:"to_type" binding:"required"`
}

// ConversionResult is the recorded conversion and the resulting balances
type ConversionResult struct {
	Conversion *models.Conversion `json:"conversion"`
	Balances   models.Balances    `json:"balances"`
}

// Convert debits the source bucket and credits the destination by the same
// amount. The sum of the three buckets is unchanged.
func (s *ConversionService) Convert(ctx context.Context, userID uint, req *ConvertRequest) (*ConversionResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !req.FromType.Valid() || !req.ToType.Valid() {
		return nil, ErrInvalidBucket
	}
	if req.FromType == req.ToType {
		return nil, ErrSameBucket
	}

	var (
		conv *models.Conversion
		user *models.User
	)
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		u, err := r.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.Bucket(req.FromType).LessThan(req.Amount) {
			return ErrInsufficientBucket
		}

		delta := bucketDelta(req.FromType, req.Amount.Neg()).Add(bucketDelta(req.ToType, req.Amount))
		if err := s.ledger.Commit(ctx, r, u, delta); err != nil {
			return err
		}

		conv = &models.Conversion{
			UserID:   userID,
			FromType: req.FromType,
			ToType:   req.ToType,
			Amount:   req.Amount,
		}
		if err := r.Conversions().Create(ctx, conv); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("balance converted",
		"user_id", userID, "from", req.FromType, "to", req.ToType, "amount", req.Amount.String())
	s.ledger.publish(user)

	return &ConversionResult{Conversion: conv, Balances: user.Balances()}, nil
}

// ListByUser returns a user's conversions, newest first
func (s *ConversionService) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Conversion, int64, error) {
	return s.store.Conversions().ListByUser(ctx, userID, page, pageSize)
}
