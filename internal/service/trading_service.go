package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Scheduler arms and disarms the deferred auto-close of a trade.
type Scheduler interface {
	Schedule(tradeID uint, due time.Time)
	Cancel(tradeID uint)
}

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// PriceLookup resolves the live price of a trading pair.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, pairID uint) (decimal.Decimal, error)
}

type nopScheduler struct{}

func (nopScheduler) Schedule(uint, time.Time) {}
func (nopScheduler) Cancel(uint)              {}

// TradingService opens and settles quick trades
type TradingService struct {
	store     repository.Store
	ledger    *Ledger
	referrals *ReferralService
	prices    PriceLookup
	events    EventPublisher
	rules     config.TradingConfig

	scheduler Scheduler
	rng       RandomSource
	rngMux    sync.Mutex
}

// NewTradingService creates a new TradingService
func NewTradingService(
	store repository.Store,
	ledger *Ledger,
	referrals *ReferralService,
	prices PriceLookup,
	rules config.TradingConfig,
) *TradingService {
	return &TradingService{
		store:     store,
		ledger:    ledger,
		referrals: referrals,
		prices:    prices,
		events:    ledger.events,
		rules:     rules,
		scheduler: nopScheduler{},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetScheduler sets the auto-close scheduler
func (s *TradingService) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// SetRandomSource replaces the source behind the outcome percentages
func (s *TradingService) SetRandomSource(rng RandomSource) {
	s.rngMux.Lock()
	s.rng = rng
	s.rngMux.Unlock()
}

// OpenTradeRequest represents a request to open a quick trade
type OpenTradeRequest struct {
	UserID     uint             `json:"-"`
	PairID     uint             `json:"pair_id" binding:"required"`
	Type       models.TradeType `json:"type" binding:"required"`
	Amount     decimal.Decimal  `json:"amount"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	Duration   int              `json:"duration" binding:"omitempty,min=1,max=86400"`
	TakeProfit *decimal.Decimal `json:"take_profit"`
	StopLoss   *decimal.Decimal `json:"stop_loss"`
}

// CloseTradeRequest represents a manual close. Omitted fields fall back to
// the entry price and the outcome fixed at open.
type CloseTradeRequest struct {
	ExitPrice *decimal.Decimal `json:"exit_price"`
	Pnl       *decimal.Decimal `json:"pnl"`
	IsProfit  *bool            `json:"is_profit"`
}

// TradeResult is a trade together with the owner's balances after the change
type TradeResult struct {
	Trade    *models.Trade    `json:"trade"`
	Balances *models.Balances `json:"balances"`
}

// OpenTrade escrows the stake, fixes the outcome and arms the auto-close.
func (s *TradingService) OpenTrade(ctx context.Context, req *OpenTradeRequest) (*TradeResult, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidTradeType
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.EntryPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	duration := req.Duration
	if duration < 0 {
		return nil, ErrInvalidDuration
	}
	if duration == 0 {
		duration = s.rules.DefaultDurationSec
	}

	entryPrice := req.EntryPrice
	if entryPrice.IsZero() && s.prices != nil {
		if price, err := s.prices.CurrentPrice(ctx, req.PairID); err == nil {
			entryPrice = price
		}
	}

	var (
		trade *models.Trade
		user  *models.User
	)
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		pair, err := r.Pairs().GetByID(ctx, req.PairID)
		if err != nil {
			return err
		}
		if !pair.IsActive {
			return ErrPairInactive
		}

		u, err := r.Users().GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if u.IsQuickTradeLocked {
			return ErrQuickTradeLocked
		}
		if !u.TradingBalance.IsPositive() {
			return ErrZeroTradingBalance
		}
		if u.TradingBalance.LessThan(req.Amount) {
			return ErrInsufficientTrading
		}

		price := entryPrice
		if price.IsZero() {
			price = pair.CurrentPrice
		}
		if !price.IsPositive() {
			return ErrInvalidPrice
		}

		sequence := u.TradeCount + 1
		pct, win := s.outcome(sequence)

		trade = &models.Trade{
			UserID:     u.ID,
			PairID:     pair.ID,
			Symbol:     pair.Symbol,
			Type:       req.Type,
			Amount:     req.Amount,
			EntryPrice: price,
			Pnl:        req.Amount.Mul(pct).Div(hundred).Round(8),
			IsProfit:   win,
			Status:     models.TradeStatusOpen,
			Duration:   duration,
			TakeProfit: req.TakeProfit,
			StopLoss:   req.StopLoss,
			Sequence:   sequence,
			CreatedAt:  time.Now(),
		}
		if err := r.Trades().Create(ctx, trade); err != nil {
			return err
		}

		if err := s.ledger.Commit(ctx, r, u, Delta{Trading: req.Amount.Neg(), Trades: 1}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.scheduler.Schedule(trade.ID, trade.DueAt())

	logger.Info("trade opened",
		"trade_id", trade.ID, "user_id", trade.UserID, "symbol", trade.Symbol,
		"amount", trade.Amount.String(), "sequence", trade.Sequence, "is_profit", trade.IsProfit)

	s.events.TradeOpened(trade)
	s.ledger.publish(user)

	balances := user.Balances()
	return &TradeResult{Trade: trade, Balances: &balances}, nil
}

// CloseTrade settles an open trade on request of its owner or an admin.
func (s *TradingService) CloseTrade(ctx context.Context, tradeID uint, req *CloseTradeRequest) (*TradeResult, error) {
	if req.ExitPrice != nil && !req.ExitPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	result, err := s.settle(ctx, tradeID, func(t *models.Trade) (decimal.Decimal, decimal.Decimal, bool) {
		exit, pnl, isProfit := t.EntryPrice, t.Pnl, t.IsProfit
		if req.ExitPrice != nil {
			exit = *req.ExitPrice
		}
		if req.Pnl != nil {
			pnl = *req.Pnl
			isProfit = pnl.IsPositive()
		}
		if req.IsProfit != nil {
			isProfit = *req.IsProfit
		}
		return exit, pnl, isProfit
	})
	if err != nil {
		return nil, err
	}

	s.scheduler.Cancel(tradeID)
	return result, nil
}

// AutoClose settles a trade at its entry price with the outcome fixed at
// open. A trade that is already closed is skipped.
func (s *TradingService) AutoClose(ctx context.Context, tradeID uint) error {
	_, err := s.settle(ctx, tradeID, func(t *models.Trade) (decimal.Decimal, decimal.Decimal, bool) {
		return t.EntryPrice, t.Pnl, t.IsProfit
	})
	if errors.Is(err, ErrTradeAlreadyClosed) {
		logger.Debug("auto-close skipped, trade already closed", "trade_id", tradeID)
		return nil
	}
	return err
}

type resolveFunc func(t *models.Trade) (exitPrice, pnl decimal.Decimal, isProfit bool)

func (s *TradingService) settle(ctx context.Context, tradeID uint, resolve resolveFunc) (*TradeResult, error) {
	var (
		trade    *models.Trade
		owner    *models.User
		referrer *models.User
	)
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		t, err := r.Trades().GetByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if !t.IsOpen() {
			return ErrTradeAlreadyClosed
		}

		exit, pnl, isProfit := resolve(t)
		if pnl.LessThan(t.Amount.Neg()) {
			return ErrLossExceedsStake
		}

		now := time.Now()
		t.ExitPrice = &exit
		t.Pnl = pnl
		t.IsProfit = isProfit
		t.ClosedAt = &now
		if err := r.Trades().MarkClosed(ctx, t); err != nil {
			if errors.Is(err, repository.ErrStaleRecord) {
				return ErrTradeAlreadyClosed
			}
			return err
		}

		owner, err = s.ledger.Apply(ctx, r, t.UserID, Delta{Trading: t.Amount.Add(pnl), Profit: pnl})
		if err != nil {
			return err
		}

		if isProfit && owner.ReferredBy != nil {
			referrer, err = s.referrals.Credit(ctx, r, *owner.ReferredBy, owner.ID, s.referrals.Commission(pnl))
			if err != nil {
				return err
			}
		}

		trade = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("trade closed",
		"trade_id", trade.ID, "user_id", trade.UserID,
		"pnl", trade.Pnl.String(), "is_profit", trade.IsProfit)

	s.events.TradeClosed(trade)
	s.ledger.publish(owner)
	s.ledger.publish(referrer)

	balances := owner.Balances()
	return &TradeResult{Trade: trade, Balances: &balances}, nil
}

// outcome applies the 1-in-3 rule to the user's sequence-th trade and
// returns the signed percentage of the stake.
func (s *TradingService) outcome(sequence int64) (decimal.Decimal, bool) {
	s.rngMux.Lock()
	u := s.rng.Float64()
	s.rngMux.Unlock()

	if sequence%3 == 0 {
		pct := s.rules.WinPctMin + u*(s.rules.WinPctMax-s.rules.WinPctMin)
		return decimal.NewFromFloat(pct).Truncate(4), true
	}
	pct := s.rules.LossPctMin + u*(s.rules.LossPctMax-s.rules.LossPctMin)
	return decimal.NewFromFloat(pct).Truncate(4).Neg(), false
}

// GetTrade returns a trade by ID
func (s *TradingService) GetTrade(ctx context.Context, tradeID uint) (*models.Trade, error) {
	return s.store.Trades().GetByID(ctx, tradeID)
}

// ListTrades returns a user's trades, newest first
func (s *TradingService) ListTrades(ctx context.Context, userID uint, page, pageSize int) ([]models.Trade, int64, error) {
	return s.store.Trades().ListByUser(ctx, userID, page, pageSize)
}

// RearmOpenTrades schedules the auto-close of every trade still open,
// typically after a restart. Overdue trades fire immediately.
func (s *TradingService) RearmOpenTrades(ctx context.Context) (int, error) {
	open, err := s.store.Trades().ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	for i := range open {
		s.scheduler.Schedule(open[i].ID, open[i].DueAt())
	}
	return len(open), nil
}
