package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsVisibility(t *testing.T) {
	f := newFixture(t)
	content := NewContentService(f.store)

	no := false
	live, err := content.CreateNews(f.ctx, &NewsRequest{Title: " Launch ", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Launch", live.Title)
	assert.True(t, live.IsPublished)

	draft, err := content.CreateNews(f.ctx, &NewsRequest{Title: "Draft", IsPublished: &no})
	require.NoError(t, err)

	public, err := content.ListNews(f.ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, live.ID, public[0].ID)

	all, err := content.ListNews(f.ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yes := true
	updated, err := content.UpdateNews(f.ctx, draft.ID, &NewsRequest{Title: "Draft v2", IsPublished: &yes})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)

	_, err = content.CreateNews(f.ctx, &NewsRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, content.DeleteNews(f.ctx, live.ID))
	_, err = content.UpdateNews(f.ctx, live.ID, &NewsRequest{Title: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalletUpsert(t *testing.T) {
	f := newFixture(t)
	content := NewContentService(f.store)

	_, err := content.SetWallet(f.ctx, &WalletRequest{Currency: "usdt", Network: "TRC20", Address: "T-old"})
	require.NoError(t, err)
	_, err = content.SetWallet(f.ctx, &WalletRequest{Currency: "USDT", Network: "TRC20", Address: "T-new"})
	require.NoError(t, err)

	wallets, err := content.ListWallets(f.ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "USDT", wallets[0].Currency)
	assert.Equal(t, "T-new", wallets[0].Address)

	require.NoError(t, content.DeleteWallet(f.ctx, "usdt"))
	wallets, err = content.ListWallets(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)
}
