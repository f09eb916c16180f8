package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/service"
	"github.com/shopspring/decimal"
)

var (
	two          = decimal.NewFromInt(2)
	reversion    = decimal.RequireFromString("0.05")
	lowerBandPct = decimal.RequireFromString("0.5")
	upperBandPct = decimal.RequireFromString("1.5")
)

// PriceTicker drives the simulated market: every interval each active pair
// takes one bounded random-walk step.
type PriceTicker struct {
	pairs    *service.PairService
	interval time.Duration
	rng      *rand.Rand

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewPriceTicker creates a new PriceTicker
func NewPriceTicker(pairs *service.PairService, interval time.Duration) *PriceTicker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PriceTicker{
		pairs:    pairs,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stopChan: make(chan struct{}),
	}
}

// Start begins the tick loop
func (w *PriceTicker) Start(ctx context.Context) {
	logger.Info("price ticker started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.step(ctx)
	for {
		select {
		case <-ticker.C:
			w.step(ctx)
		case <-ctx.Done():
			logger.Info("price ticker stopped")
			return
		case <-w.stopChan:
			logger.Info("price ticker stopped")
			return
		}
	}
}

// Stop stops the tick loop
func (w *PriceTicker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *PriceTicker) step(ctx context.Context) {
	pairs, err := w.pairs.List(ctx)
	if err != nil {
		logger.Warn("price ticker: failed to list pairs", "error", err)
		return
	}

	now := time.Now().UnixMilli()
	for i := range pairs {
		pair := &pairs[i]
		if !pair.IsActive {
			continue
		}
		price := NextPrice(pair, w.rng.Float64())
		w.pairs.OnPriceUpdate(ctx, Quote(pair, price, now))
	}
}

// NextPrice moves the pair's current price by a uniform shock of at most
// its volatility, pulled slightly back toward the base price and kept
// within half and one and a half times the base price. u is in [0, 1).
func NextPrice(pair *models.TradingPair, u float64) decimal.Decimal {
	current := pair.CurrentPrice
	if !current.IsPositive() {
		current = pair.BasePrice
	}

	shock := decimal.NewFromFloat(2*u - 1).Mul(pair.Volatility)
	pull := decimal.Zero
	if pair.BasePrice.IsPositive() {
		pull = pair.BasePrice.Sub(current).Div(pair.BasePrice).Mul(reversion)
	}
	next := current.Mul(decimal.NewFromInt(1).Add(shock).Add(pull))

	if pair.BasePrice.IsPositive() {
		lo := pair.BasePrice.Mul(lowerBandPct)
		hi := pair.BasePrice.Mul(upperBandPct)
		next = decimal.Max(lo, decimal.Min(hi, next))
	}
	return next.Round(8)
}

// Quote builds a tick with bid and ask spread evenly around price.
func Quote(pair *models.TradingPair, price decimal.Decimal, ts int64) models.PriceTick {
	half := price.Mul(pair.Spread).Div(two)
	return models.PriceTick{
		PairID:    pair.ID,
		Symbol:    pair.Symbol,
		Price:     price,
		Bid:       price.Sub(half).Round(8),
		Ask:       price.Add(half).Round(8),
		Timestamp: ts,
	}
}
