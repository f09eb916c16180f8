package service

import (
	"errors"
	"fmt"

	"github.com/edgemarket/internal/repository"
)

// Error kinds. Every error a service returns either is one of these or
// wraps one, so handlers can classify with errors.Is.
var (
	ErrNotFound          = repository.ErrNotFound
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var (
	ErrZeroTradingBalance  = fmt.Errorf("%w: trading balance is zero", ErrInsufficientFunds)
	ErrInsufficientTrading = fmt.Errorf("%w: trading balance is lower than the trade amount", ErrInsufficientFunds)
	ErrInsufficientBucket  = fmt.Errorf("%w: source balance is lower than the amount", ErrInsufficientFunds)
	ErrNegativeBalance     = fmt.Errorf("%w: balance cannot go below zero", ErrInsufficientFunds)

	ErrTradeAlreadyClosed = fmt.Errorf("%w: trade is already closed", ErrInvalidState)
	ErrQuickTradeLocked   = fmt.Errorf("%w: quick trade is locked for this account", ErrInvalidState)
	ErrPairInactive       = fmt.Errorf("%w: trading pair is not active", ErrInvalidState)

	ErrInvalidAmount          = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrInvalidPrice           = fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	ErrInvalidDuration        = fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	ErrInvalidTradeType       = fmt.Errorf("%w: trade type must be BUY or SELL", ErrInvalidArgument)
	ErrLossExceedsStake       = fmt.Errorf("%w: loss cannot exceed the trade amount", ErrInvalidArgument)
	ErrInvalidBucket          = fmt.Errorf("%w: unknown balance type", ErrInvalidArgument)
	ErrSameBucket             = fmt.Errorf("%w: source and destination are the same", ErrInvalidArgument)
	ErrInvalidTransactionType = fmt.Errorf("%w: transaction type must be DEPOSIT or WITHDRAWAL", ErrInvalidArgument)
	ErrMissingMethod          = fmt.Errorf("%w: payment method is required", ErrInvalidArgument)
	ErrNegativeValue          = fmt.Errorf("%w: balance values must be non-negative", ErrInvalidArgument)
	ErrInvalidReferralCode    = fmt.Errorf("%w: unknown referral code", ErrInvalidArgument)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidToken       = errors.New("invalid token")
)
