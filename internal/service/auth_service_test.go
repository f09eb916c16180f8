package service

import (
	"testing"

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/pkg/keygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Register(f.ctx, &RegisterRequest{
		Email:    "  Alice@Example.com ",
		FullName: "Alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Len(t, user.ReferralCode, keygen.ReferralCodeLength)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Nil(t, user.ReferredBy)
	assert.True(t, user.TotalBalance.IsZero())

	_, err = f.auth.Register(f.ctx, &RegisterRequest{Email: "ALICE@example.com", FullName: "Alice", Password: "other123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, err := f.auth.Login(f.ctx, &LoginRequest{Email: "alice@EXAMPLE.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 3600, token.ExpiresIn)

	claims, err := f.auth.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)

	refreshed, err := f.auth.RefreshToken(f.ctx, token.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.auth.Login(f.ctx, &LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(f.ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.ValidateToken(token.AccessToken + "x")
	assert.Error(t, err)
	_, err = f.auth.RefreshToken(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterStarterBalances(t *testing.T) {
	f := newFixture(t)
	rules := config.Default().Trading
	rules.StarterTotal = "1000"
	rules.StarterTrading = "250.5"
	auth, err := NewAuthService(f.store, f.referrals, config.JWTConfig{Secret: "s", ExpireHours: 1}, rules)
	require.NoError(t, err)

	user, err := auth.Register(f.ctx, &RegisterRequest{Email: "b@example.com", FullName: "Bob", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, user.TotalBalance.Equal(dec("1000")))
	assert.True(t, user.TradingBalance.Equal(dec("250.5")))
	assert.True(t, user.Profit.IsZero())
}

func TestNewAuthServiceRejectsBadStarterBalances(t *testing.T) {
	f := newFixture(t)
	for name, mutate := range map[string]func(*config.TradingConfig){
		"negative trading": func(r *config.TradingConfig) { r.StarterTrading = "-50" },
		"unparsable total": func(r *config.TradingConfig) { r.StarterTotal = "abc" },
		"empty profit":     func(r *config.TradingConfig) { r.StarterProfit = "" },
	} {
		t.Run(name, func(t *testing.T) {
			rules := config.Default().Trading
			mutate(&rules)
			auth, err := NewAuthService(f.store, f.referrals, config.JWTConfig{Secret: "s", ExpireHours: 1}, rules)
			assert.Error(t, err)
			assert.Nil(t, auth)
		})
	}
}

func TestRegisterWithReferralCode(t *testing.T) {
	f := newFixture(t)
	referrer := f.register(t, "referrer@example.com", "", 0)

	referee, err := f.auth.Register(f.ctx, &RegisterRequest{
		Email:        "referee@example.com",
		FullName:     "Referee",
		Password:     "secret123",
		ReferralCode: " " + referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, referee.ReferredBy)
	assert.Equal(t, referrer.ID, *referee.ReferredBy)

	link, err := f.store.Referrals().GetByPair(f.ctx, referrer.ID, referee.ID)
	require.NoError(t, err)
	assert.True(t, link.TotalEarnings.IsZero())

	_, err = f.auth.Register(f.ctx, &RegisterRequest{
		Email:        "ghost@example.com",
		FullName:     "Ghost",
		Password:     "secret123",
		ReferralCode: "NOSUCHCD",
	})
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
	_, err = f.store.Users().GetByEmail(f.ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "failed registration leaves no user behind")
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	cfg := config.AdminConfig{Email: "Root@example.com", Password: "rootpass", FullName: "Root"}

	require.NoError(t, f.auth.EnsureAdmin(f.ctx, cfg))
	admin, err := f.store.Users().GetByEmail(f.ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	// second boot is a no-op
	require.NoError(t, f.auth.EnsureAdmin(f.ctx, cfg))
	n, err := f.store.Users().Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	token, err := f.auth.Login(f.ctx, &LoginRequest{Email: "root@example.com", Password: "rootpass"})
	require.NoError(t, err)
	claims, err := f.auth.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	// an existing account is promoted
	user := f.register(t, "ops@example.com", "", 0)
	require.NoError(t, f.auth.EnsureAdmin(f.ctx, config.AdminConfig{Email: "ops@example.com"}))
	assert.True(t, f.user(t, user.ID).IsAdmin)

	assert.NoError(t, f.auth.EnsureAdmin(f.ctx, config.AdminConfig{}))
	assert.Error(t, f.auth.EnsureAdmin(f.ctx, config.AdminConfig{Email: "new@example.com"}))
}
