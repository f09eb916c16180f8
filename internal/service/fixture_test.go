package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[uint]time.Time
	cancelled []uint
}

func (s *recordingScheduler) Schedule(tradeID uint, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[tradeID] = due
}

func (s *recordingScheduler) Cancel(tradeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scheduled, tradeID)
	s.cancelled = append(s.cancelled, tradeID)
}

type recordingEvents struct {
	mu       sync.Mutex
	opened   []uint
	closed   []uint
	balances map[uint]models.Balances
}

func (e *recordingEvents) TradeOpened(t *models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened = append(e.opened, t.ID)
}

func (e *recordingEvents) TradeClosed(t *models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = append(e.closed, t.ID)
}

func (e *recordingEvents) BalanceChanged(userID uint, b models.Balances) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balances[userID] = b
}

type fixture struct {
	ctx          context.Context
	store        *memstore.Store
	ledger       *Ledger
	referrals    *ReferralService
	pairs        *PairService
	trading      *TradingService
	transactions *TransactionService
	conversions  *ConversionService
	auth         *AuthService
	admin        *AdminService
	scheduler    *recordingScheduler
	events       *recordingEvents
	pair         models.TradingPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	rules := config.Default().Trading

	store := memstore.New()
	events := &recordingEvents{balances: make(map[uint]models.Balances)}
	ledger := NewLedger(store, events)
	referrals := NewReferralService(store, ledger, decimal.NewFromFloat(rules.ReferralRate))

	pairs := NewPairService(store, nil)
	require.NoError(t, pairs.Seed(ctx))
	catalog, err := pairs.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, catalog)

	auth, err := NewAuthService(store, referrals, config.JWTConfig{Secret: "test-secret", ExpireHours: 1}, rules)
	require.NoError(t, err)

	scheduler := &recordingScheduler{scheduled: make(map[uint]time.Time)}
	trading := NewTradingService(store, ledger, referrals, pairs, rules)
	trading.SetScheduler(scheduler)
	trading.SetRandomSource(fixedRand(0.5))

	return &fixture{
		ctx:          ctx,
		store:        store,
		ledger:       ledger,
		referrals:    referrals,
		pairs:        pairs,
		trading:      trading,
		transactions: NewTransactionService(store, ledger),
		conversions:  NewConversionService(store, ledger),
		auth:         auth,
		admin:        NewAdminService(store, ledger, trading),
		scheduler:    scheduler,
		events:       events,
		pair:         catalog[0],
	}
}

// register creates a user through the auth service and sets their trading
// balance.
func (f *fixture) register(t *testing.T, email, referralCode string, trading int64) *models.User {
	t.Helper()
	user, err := f.auth.Register(f.ctx, &RegisterRequest{
		Email:        email,
		FullName:     "Test User",
		Password:     "secret123",
		ReferralCode: referralCode,
	})
	require.NoError(t, err)

	if trading != 0 {
		amount := decimal.NewFromInt(trading)
		user, err = f.ledger.UpdateBalance(f.ctx, user.ID, BalanceUpdate{TradingBalance: &amount})
		require.NoError(t, err)
	}
	return user
}

func (f *fixture) user(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := f.store.Users().GetByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func (f *fixture) open(t *testing.T, userID uint, amount int64) *models.Trade {
	t.Helper()
	result, err := f.trading.OpenTrade(f.ctx, &OpenTradeRequest{
		UserID: userID,
		PairID: f.pair.ID,
		Type:   models.TradeTypeBuy,
		Amount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return result.Trade
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
