package memstore

import (
	"context"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

type tradeRepo struct{ v view }

func (r tradeRepo) Create(_ context.Context, trade *models.Trade) error {
	defer r.v.write()()

	t := r.v.s.trades
	trade.ID = t.nextID()
	stamp(&trade.CreatedAt, time.Now())
	if trade.Status == "" {
		trade.Status = models.TradeStatusOpen
	}
	t.put(r.v.j, trade.ID, *trade)
	return nil
}

func (r tradeRepo) GetByID(_ context.Context, id uint) (*models.Trade, error) {
	defer r.v.read()()

	if trade, ok := r.v.s.trades.get(id); ok {
		return trade, nil
	}
	return nil, repository.ErrTradeNotFound
}

func (r tradeRepo) MarkClosed(_ context.Context, trade *models.Trade) error {
	defer r.v.write()()

	t := r.v.s.trades
	stored, ok := t.get(trade.ID)
	if !ok || stored.Status != models.TradeStatusOpen {
		return repository.ErrStaleRecord
	}
	stored.Status = models.TradeStatusClosed
	stored.ExitPrice = trade.ExitPrice
	stored.Pnl = trade.Pnl
	stored.IsProfit = trade.IsProfit
	stored.ClosedAt = trade.ClosedAt
	t.put(r.v.j, trade.ID, *stored)

	trade.Status = models.TradeStatusClosed
	return nil
}

func (r tradeRepo) ListByUser(_ context.Context, userID uint, pg, pageSize int) ([]models.Trade, int64, error) {
	defer r.v.read()()

	rows := r.v.s.trades.find(func(t *models.Trade) bool { return t.UserID == userID }, true)
	return page(rows, pg, pageSize), int64(len(rows)), nil
}

func (r tradeRepo) ListOpen(_ context.Context) ([]models.Trade, error) {
	defer r.v.read()()

	return r.v.s.trades.find(func(t *models.Trade) bool { return t.IsOpen() }, false), nil
}

func (r tradeRepo) CountOpen(ctx context.Context) (int64, error) {
	open, err := r.ListOpen(ctx)
	return int64(len(open)), err
}

func (r tradeRepo) DeleteByUser(_ context.Context, userID uint) error {
	defer r.v.write()()

	t := r.v.s.trades
	for _, trade := range t.find(func(t *models.Trade) bool { return t.UserID == userID }, false) {
		t.del(r.v.j, trade.ID)
	}
	return nil
}

type pairRepo struct{ v view }

func (r pairRepo) Create(_ context.Context, pair *models.TradingPair) error {
	defer r.v.write()()

	t := r.v.s.pairs
	for _, p := range t.rows {
		if p.Symbol == pair.Symbol {
			return repository.ErrDuplicate
		}
	}
	pair.ID = t.nextID()
	stamp(&pair.UpdatedAt, time.Now())
	t.put(r.v.j, pair.ID, *pair)
	return nil
}

func (r pairRepo) GetByID(_ context.Context, id uint) (*models.TradingPair, error) {
	defer r.v.read()()

	if pair, ok := r.v.s.pairs.get(id); ok {
		return pair, nil
	}
	return nil, repository.ErrPairNotFound
}

func (r pairRepo) GetBySymbol(_ context.Context, symbol string) (*models.TradingPair, error) {
	defer r.v.read()()

	rows := r.v.s.pairs.find(func(p *models.TradingPair) bool { return p.Symbol == symbol }, false)
	if len(rows) == 0 {
		return nil, repository.ErrPairNotFound
	}
	return &rows[0], nil
}

func (r pairRepo) List(_ context.Context) ([]models.TradingPair, error) {
	defer r.v.read()()

	return r.v.s.pairs.find(nil, false), nil
}

func (r pairRepo) UpdatePrice(_ context.Context, id uint, price decimal.Decimal) error {
	defer r.v.write()()

	t := r.v.s.pairs
	pair, ok := t.get(id)
	if !ok {
		return repository.ErrPairNotFound
	}
	pair.CurrentPrice = price
	pair.UpdatedAt = time.Now()
	t.put(r.v.j, id, *pair)
	return nil
}
