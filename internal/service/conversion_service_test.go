package service

import (
	"testing"

	"github.com/edgemarket/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertConservesSum(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "saver@example.com", "", 0)
	total, trading, profit := dec("300"), dec("100"), dec("50")
	_, err := f.ledger.UpdateBalance(f.ctx, user.ID, BalanceUpdate{
		TotalBalance:   &total,
		TradingBalance: &trading,
		Profit:         &profit,
	})
	require.NoError(t, err)

	steps := []ConvertRequest{
		{Amount: dec("120.5"), FromType: models.BucketTotal, ToType: models.BucketTrading},
		{Amount: dec("50"), FromType: models.BucketProfit, ToType: models.BucketTotal},
		{Amount: dec("0.00000001"), FromType: models.BucketTrading, ToType: models.BucketProfit},
	}
	for _, req := range steps {
		result, err := f.conversions.Convert(f.ctx, user.ID, &req)
		require.NoError(t, err)
		b := result.Balances
		assert.True(t, b.TotalBalance.Add(b.TradingBalance).Add(b.Profit).Equal(dec("450")))
	}

	stored := f.user(t, user.ID)
	assert.True(t, stored.TotalBalance.Equal(dec("229.5")))
	assert.True(t, stored.TradingBalance.Equal(dec("220.49999999")))
	assert.True(t, stored.Profit.Equal(dec("0.00000001")))

	convs, n, err := f.conversions.ListByUser(f.ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, models.BucketTrading, convs[0].FromType, "newest first")
}

func TestConvertRejections(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "saver@example.com", "", 100)

	tests := []struct {
		name string
		req  ConvertRequest
		want error
		kind error
	}{
		{"more than source", ConvertRequest{Amount: dec("100.01"), FromType: models.BucketTrading, ToType: models.BucketTotal}, ErrInsufficientBucket, ErrInsufficientFunds},
		{"empty source", ConvertRequest{Amount: dec("1"), FromType: models.BucketProfit, ToType: models.BucketTrading}, ErrInsufficientBucket, ErrInsufficientFunds},
		{"same bucket", ConvertRequest{Amount: dec("1"), FromType: models.BucketTrading, ToType: models.BucketTrading}, ErrSameBucket, ErrInvalidArgument},
		{"unknown bucket", ConvertRequest{Amount: dec("1"), FromType: "REFERRAL", ToType: models.BucketTrading}, ErrInvalidBucket, ErrInvalidArgument},
		{"negative amount", ConvertRequest{Amount: dec("-1"), FromType: models.BucketTrading, ToType: models.BucketTotal}, ErrInvalidAmount, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.conversions.Convert(f.ctx, user.ID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	stored := f.user(t, user.ID)
	assert.True(t, stored.TradingBalance.Equal(dec("100")))
	assert.True(t, stored.TotalBalance.IsZero())

	_, n, err := f.conversions.ListByUser(f.ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}
