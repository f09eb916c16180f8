package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email, code string) *models.User {
	return &models.User{
		Email:          email,
		ReferralCode:   code,
		TradingBalance: decimal.NewFromInt(100),
	}
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	user := newUser("a@example.com", "AAAA")
	require.NoError(t, s.Users().Create(ctx, user))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(r repository.Repos) error {
		u, err := r.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		u.TradingBalance = decimal.Zero
		require.NoError(t, r.Users().SaveBalances(ctx, u))

		require.NoError(t, r.Trades().Create(ctx, &models.Trade{UserID: user.ID, Amount: decimal.NewFromInt(100)}))
		require.NoError(t, r.Users().Create(ctx, newUser("b@example.com", "BBBB")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.TradingBalance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(0), got.Version)

	trades, total, err := s.Trades().ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, trades)

	_, err = s.Users().GetByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveBalancesRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := New()

	user := newUser("a@example.com", "AAAA")
	require.NoError(t, s.Users().Create(ctx, user))

	first, _ := s.Users().GetByID(ctx, user.ID)
	second, _ := s.Users().GetByID(ctx, user.ID)

	first.Profit = decimal.NewFromInt(5)
	require.NoError(t, s.Users().SaveBalances(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.Profit = decimal.NewFromInt(7)
	assert.ErrorIs(t, s.Users().SaveBalances(ctx, second), repository.ErrStaleRecord)

	got, _ := s.Users().GetByID(ctx, user.ID)
	assert.True(t, got.Profit.Equal(decimal.NewFromInt(5)))
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Users().Create(ctx, newUser("a@example.com", "AAAA")))
	assert.ErrorIs(t, s.Users().Create(ctx, newUser("a@example.com", "CCCC")), repository.ErrDuplicate)
	assert.ErrorIs(t, s.Users().Create(ctx, newUser("c@example.com", "AAAA")), repository.ErrDuplicate)

	ref := &models.Referral{ReferrerID: 1, RefereeID: 2}
	require.NoError(t, s.Referrals().Create(ctx, ref))
	assert.ErrorIs(t, s.Referrals().Create(ctx, &models.Referral{ReferrerID: 1, RefereeID: 2}), repository.ErrDuplicate)
}

func TestMarkClosedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	trade := &models.Trade{UserID: 1, Amount: decimal.NewFromInt(10)}
	require.NoError(t, s.Trades().Create(ctx, trade))
	assert.Equal(t, models.TradeStatusOpen, trade.Status)

	require.NoError(t, s.Trades().MarkClosed(ctx, trade))
	assert.ErrorIs(t, s.Trades().MarkClosed(ctx, trade), repository.ErrStaleRecord)

	open, err := s.Trades().ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Transactions().Create(ctx, &models.Transaction{
			UserID: 1,
			Type:   models.TransactionDeposit,
			Amount: decimal.NewFromInt(int64(i + 1)),
			Status: models.TransactionPending,
		}))
	}

	rows, total, err := s.Transactions().ListByUser(ctx, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	// newest first
	assert.Equal(t, uint(3), rows[0].ID)
	assert.Equal(t, uint(2), rows[1].ID)

	rows, _, err = s.Transactions().ListByUser(ctx, 1, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWalletUpsertReplacesByCurrency(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Wallets().Upsert(ctx, &models.WalletAddress{Currency: "USDT", Address: "old"}))
	require.NoError(t, s.Wallets().Upsert(ctx, &models.WalletAddress{Currency: "BTC", Address: "btc"}))
	require.NoError(t, s.Wallets().Upsert(ctx, &models.WalletAddress{Currency: "USDT", Address: "new"}))

	wallets, err := s.Wallets().List(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "BTC", wallets[0].Currency)
	assert.Equal(t, "new", wallets[1].Address)

	assert.ErrorIs(t, s.Wallets().Delete(ctx, "ETH"), repository.ErrNotFound)
}
