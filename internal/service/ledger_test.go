package service

import (
	"testing"

	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBalanceOverwritesGivenFields(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com", "", 100)

	profit := dec("-12.5")
	earnings := dec("3")
	updated, err := f.ledger.UpdateBalance(f.ctx, user.ID, BalanceUpdate{Profit: &profit, ReferralEarnings: &earnings})
	require.NoError(t, err)
	assert.True(t, updated.TradingBalance.Equal(dec("100")), "untouched")
	assert.True(t, updated.Profit.Equal(profit))
	assert.True(t, updated.ReferralEarnings.Equal(earnings))
	assert.True(t, f.events.balances[user.ID].Profit.Equal(profit))

	negative := dec("-1")
	for _, upd := range []BalanceUpdate{
		{TotalBalance: &negative},
		{TradingBalance: &negative},
		{ReferralEarnings: &negative},
	} {
		_, err := f.ledger.UpdateBalance(f.ctx, user.ID, upd)
		assert.ErrorIs(t, err, ErrNegativeValue)
	}

	_, err = f.ledger.UpdateBalance(f.ctx, 9999, BalanceUpdate{Profit: &profit})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitRejectsNegativeBalances(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com", "", 10)

	err := f.store.Atomic(f.ctx, func(r repository.Repos) error {
		_, err := f.ledger.Apply(f.ctx, r, user.ID, Delta{Trading: dec("-10.01")})
		return err
	})
	assert.ErrorIs(t, err, ErrNegativeBalance)

	// profit alone may go negative
	err = f.store.Atomic(f.ctx, func(r repository.Repos) error {
		_, err := f.ledger.Apply(f.ctx, r, user.ID, Delta{Profit: dec("-5"), Trades: 2})
		return err
	})
	require.NoError(t, err)

	stored := f.user(t, user.ID)
	assert.True(t, stored.TradingBalance.Equal(dec("10")))
	assert.True(t, stored.Profit.Equal(dec("-5")))
	assert.Equal(t, int64(2), stored.TradeCount)

	balances, err := f.ledger.Balances(f.ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.Profit.Equal(dec("-5")))
}

func TestDeltaAdd(t *testing.T) {
	d := Delta{Total: dec("1"), FloorTotal: true}.Add(Delta{Total: dec("2"), Trading: dec("-3"), Trades: 1})
	assert.True(t, d.Total.Equal(dec("3")))
	assert.True(t, d.Trading.Equal(dec("-3")))
	assert.True(t, d.Profit.Equal(decimal.Zero))
	assert.True(t, d.FloorTotal)
	assert.Equal(t, int64(1), d.Trades)
}
