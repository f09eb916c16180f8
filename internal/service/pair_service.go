package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	priceKeyTTL        = 30 * time.Second
	priceUpdateChannel = "price_updates"
)

// DefaultPairs is the catalog seeded into an empty store
var DefaultPairs = []models.TradingPair{
	{Symbol: "BTC/USDT", BaseAsset: "BTC", QuoteAsset: "USDT", BasePrice: decimal.NewFromInt(65000), Spread: decimal.RequireFromString("0.0005"), Volatility: decimal.RequireFromString("0.002")},
	{Symbol: "ETH/USDT", BaseAsset: "ETH", QuoteAsset: "USDT", BasePrice: decimal.NewFromInt(3200), Spread: decimal.RequireFromString("0.0005"), Volatility: decimal.RequireFromString("0.0025")},
	{Symbol: "BNB/USDT", BaseAsset: "BNB", QuoteAsset: "USDT", BasePrice: decimal.NewFromInt(580), Spread: decimal.RequireFromString("0.0006"), Volatility: decimal.RequireFromString("0.0025")},
	{Symbol: "SOL/USDT", BaseAsset: "SOL", QuoteAsset: "USDT", BasePrice: decimal.NewFromInt(150), Spread: decimal.RequireFromString("0.0008"), Volatility: decimal.RequireFromString("0.003")},
	{Symbol: "XRP/USDT", BaseAsset: "XRP", QuoteAsset: "USDT", BasePrice: decimal.RequireFromString("0.52"), Spread: decimal.RequireFromString("0.001"), Volatility: decimal.RequireFromString("0.003")},
	{Symbol: "DOGE/USDT", BaseAsset: "DOGE", QuoteAsset: "USDT", BasePrice: decimal.RequireFromString("0.12"), Spread: decimal.RequireFromString("0.001"), Volatility: decimal.RequireFromString("0.004")},
	{Symbol: "EUR/USD", BaseAsset: "EUR", QuoteAsset: "USD", BasePrice: decimal.RequireFromString("1.08"), Spread: decimal.RequireFromString("0.0001"), Volatility: decimal.RequireFromString("0.0004")},
	{Symbol: "GBP/USD", BaseAsset: "GBP", QuoteAsset: "USD", BasePrice: decimal.RequireFromString("1.27"), Spread: decimal.RequireFromString("0.0001"), Volatility: decimal.RequireFromString("0.0005")},
	{Symbol: "XAU/USD", BaseAsset: "XAU", QuoteAsset: "USD", BasePrice: decimal.NewFromInt(2350), Spread: decimal.RequireFromString("0.0003"), Volatility: decimal.RequireFromString("0.001")},
}

// PriceSubscriber receives every simulated tick
type PriceSubscriber interface {
	OnPriceTick(tick models.PriceTick)
}

// PairService serves the trading pair catalog and the latest simulated
// prices. Ticks are kept in memory and mirrored to redis when configured.
type PairService struct {
	store repository.Store
	redis *redis.Client

	ticks    map[uint]models.PriceTick
	ticksMux sync.RWMutex

	subscribers []PriceSubscriber
	subsMux     sync.RWMutex
}

// NewPairService creates a new PairService. redisClient may be nil.
func NewPairService(store repository.Store, redisClient *redis.Client) *PairService {
	return &PairService{
		store: store,
		redis: redisClient,
		ticks: make(map[uint]models.PriceTick),
	}
}

// Seed creates the default catalog when the store has no pairs.
func (s *PairService) Seed(ctx context.Context) error {
	pairs, err := s.store.Pairs().List(ctx)
	if err != nil {
		return err
	}
	if len(pairs) > 0 {
		return nil
	}

	for _, p := range DefaultPairs {
		pair := p
		pair.CurrentPrice = pair.BasePrice
		pair.IsActive = true
		if err := s.store.Pairs().Create(ctx, &pair); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	logger.Info("trading pairs seeded", "count", len(DefaultPairs))
	return nil
}

// Subscribe registers a tick subscriber
func (s *PairService) Subscribe(sub PriceSubscriber) {
	s.subsMux.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.subsMux.Unlock()
}

// List returns the catalog with the latest prices applied
func (s *PairService) List(ctx context.Context) ([]models.TradingPair, error) {
	pairs, err := s.store.Pairs().List(ctx)
	if err != nil {
		return nil, err
	}
	s.ticksMux.RLock()
	for i := range pairs {
		if tick, ok := s.ticks[pairs[i].ID]; ok {
			pairs[i].CurrentPrice = tick.Price
		}
	}
	s.ticksMux.RUnlock()
	return pairs, nil
}

// Get returns a pair with its latest price
func (s *PairService) Get(ctx context.Context, id uint) (*models.TradingPair, error) {
	pair, err := s.store.Pairs().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.ticksMux.RLock()
	if tick, ok := s.ticks[id]; ok {
		pair.CurrentPrice = tick.Price
	}
	s.ticksMux.RUnlock()
	return pair, nil
}

// CurrentPrice returns the latest price of a pair: memory first, then
// redis, then the stored catalog.
func (s *PairService) CurrentPrice(ctx context.Context, pairID uint) (decimal.Decimal, error) {
	s.ticksMux.RLock()
	tick, ok := s.ticks[pairID]
	s.ticksMux.RUnlock()
	if ok {
		return tick.Price, nil
	}

	if s.redis != nil {
		if v, err := s.redis.HGet(ctx, priceKey(pairID), "price").Result(); err == nil {
			if price, err := decimal.NewFromString(v); err == nil {
				return price, nil
			}
		}
	}

	pair, err := s.store.Pairs().GetByID(ctx, pairID)
	if err != nil {
		return decimal.Zero, err
	}
	return pair.CurrentPrice, nil
}

// Snapshot returns the latest tick of every pair, ordered by pair ID
func (s *PairService) Snapshot() []models.PriceTick {
	s.ticksMux.RLock()
	out := make([]models.PriceTick, 0, len(s.ticks))
	for _, tick := range s.ticks {
		out = append(out, tick)
	}
	s.ticksMux.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].PairID < out[b].PairID })
	return out
}

// OnPriceUpdate records a tick, persists the price and fans it out.
func (s *PairService) OnPriceUpdate(ctx context.Context, tick models.PriceTick) {
	// Store in memory
	s.ticksMux.Lock()
	s.ticks[tick.PairID] = tick
	s.ticksMux.Unlock()

	if err := s.store.Pairs().UpdatePrice(ctx, tick.PairID, tick.Price); err != nil {
		logger.Warn("failed to persist price", "pair_id", tick.PairID, "error", err)
	}

	if s.redis != nil {
		key := priceKey(tick.PairID)
		pipe := s.redis.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"symbol":    tick.Symbol,
			"price":     tick.Price.String(),
			"bid":       tick.Bid.String(),
			"ask":       tick.Ask.String(),
			"timestamp": tick.Timestamp,
		})
		pipe.Expire(ctx, key, priceKeyTTL)
		pipe.Publish(ctx, priceUpdateChannel, fmt.Sprintf("%s:%s", tick.Symbol, tick.Price.String()))
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Debug("redis price mirror failed", "pair_id", tick.PairID, "error", err)
		}
	}

	s.subsMux.RLock()
	subs := s.subscribers
	s.subsMux.RUnlock()
	for _, sub := range subs {
		sub.OnPriceTick(tick)
	}
}

func priceKey(pairID uint) string {
	return fmt.Sprintf("price:pair:%d", pairID)
}
