package service

import (
	"sync"
	"testing"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickRecorder struct {
	mu    sync.Mutex
	ticks []models.PriceTick
}

func (r *tickRecorder) OnPriceTick(tick models.PriceTick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, tick)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pairs.Seed(f.ctx))

	pairs, err := f.pairs.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, pairs, len(DefaultPairs))
	for _, p := range pairs {
		assert.True(t, p.CurrentPrice.Equal(p.BasePrice), p.Symbol)
		assert.True(t, p.IsActive, p.Symbol)
	}
}

func TestPriceUpdateFansOut(t *testing.T) {
	f := newFixture(t)
	rec := &tickRecorder{}
	f.pairs.Subscribe(rec)

	tick := models.PriceTick{
		PairID:    f.pair.ID,
		Symbol:    f.pair.Symbol,
		Price:     dec("123.45"),
		Bid:       dec("123.40"),
		Ask:       dec("123.50"),
		Timestamp: time.Now().UnixMilli(),
	}
	f.pairs.OnPriceUpdate(f.ctx, tick)

	require.Len(t, rec.ticks, 1)
	assert.Equal(t, tick, rec.ticks[0])

	price, err := f.pairs.CurrentPrice(f.ctx, f.pair.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(tick.Price))

	stored, err := f.store.Pairs().GetByID(f.ctx, f.pair.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentPrice.Equal(tick.Price))

	got, err := f.pairs.Get(f.ctx, f.pair.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentPrice.Equal(tick.Price))
	assert.Equal(t, []models.PriceTick{tick}, f.pairs.Snapshot())

	// a trade opened now uses the live price
	user := f.register(t, "trader@example.com", "", 100)
	trade := f.open(t, user.ID, 10)
	assert.True(t, trade.EntryPrice.Equal(tick.Price))

	_, err = f.pairs.CurrentPrice(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
