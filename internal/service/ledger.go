package service

import (
	"context"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

// EventPublisher receives state changes after they are committed.
type EventPublisher interface {
	TradeOpened(trade *models.Trade)
	TradeClosed(trade *models.Trade)
	BalanceChanged(userID uint, balances models.Balances)
}

type nopEvents struct{}

func (nopEvents) TradeOpened(*models.Trade)            {}
func (nopEvents) TradeClosed(*models.Trade)            {}
func (nopEvents) BalanceChanged(uint, models.Balances) {}

// Delta is a relative change to a user's ledger fields.
type Delta struct {
	Total            decimal.Decimal
	Trading          decimal.Decimal
	Profit           decimal.Decimal
	ReferralEarnings decimal.Decimal
	// FloorTotal clamps the resulting total balance at zero instead of
	// rejecting the change.
	FloorTotal bool
	// Trades increments the per-user trade counter.
	Trades int64
}

// Add returns the field-wise sum of two deltas.
func (d Delta) Add(o Delta) Delta {
	return Delta{
		Total:            d.Total.Add(o.Total),
		Trading:          d.Trading.Add(o.Trading),
		Profit:           d.Profit.Add(o.Profit),
		ReferralEarnings: d.ReferralEarnings.Add(o.ReferralEarnings),
		FloorTotal:       d.FloorTotal || o.FloorTotal,
		Trades:           d.Trades + o.Trades,
	}
}

// bucketDelta moves amount into (or, negated, out of) a conversion bucket.
func bucketDelta(b models.Bucket, amount decimal.Decimal) Delta {
	switch b {
	case models.BucketTotal:
		return Delta{Total: amount}
	case models.BucketTrading:
		return Delta{Trading: amount}
	case models.BucketProfit:
		return Delta{Profit: amount}
	}
	return Delta{}
}

// BalanceUpdate is an admin override; nil fields are left untouched.
type BalanceUpdate struct {
	TotalBalance     *decimal.Decimal `json:"total_balance"`
	TradingBalance   *decimal.Decimal `json:"trading_balance"`
	Profit           *decimal.Decimal `json:"profit"`
	ReferralEarnings *decimal.Decimal `json:"referral_earnings"`
}

// Ledger owns every write to a user's monetary fields.
type Ledger struct {
	store  repository.Store
	events EventPublisher
}

// NewLedger creates a new Ledger
func NewLedger(store repository.Store, events EventPublisher) *Ledger {
	if events == nil {
		events = nopEvents{}
	}
	return &Ledger{store: store, events: events}
}

// Apply loads the user inside the caller's unit of work and applies d.
func (l *Ledger) Apply(ctx context.Context, r repository.Repos, userID uint, d Delta) (*models.User, error) {
	user, err := r.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := l.Commit(ctx, r, user, d); err != nil {
		return nil, err
	}
	return user, nil
}

// Commit applies d to a user already read inside the caller's unit of work
// and writes it back with a version check. user is updated in place.
func (l *Ledger) Commit(ctx context.Context, r repository.Repos, user *models.User, d Delta) error {
	next := *user
	next.TotalBalance = user.TotalBalance.Add(d.Total)
	if d.FloorTotal && next.TotalBalance.IsNegative() {
		next.TotalBalance = decimal.Zero
	}
	next.TradingBalance = user.TradingBalance.Add(d.Trading)
	next.Profit = user.Profit.Add(d.Profit)
	next.ReferralEarnings = user.ReferralEarnings.Add(d.ReferralEarnings)
	next.TradeCount = user.TradeCount + d.Trades

	if next.TotalBalance.IsNegative() || next.TradingBalance.IsNegative() || next.ReferralEarnings.IsNegative() {
		return ErrNegativeBalance
	}

	if err := r.Users().SaveBalances(ctx, &next); err != nil {
		return err
	}
	*user = next
	return nil
}

// UpdateBalance overwrites the given fields of a user's ledger. Profit may
// be negative; the other fields may not.
func (l *Ledger) UpdateBalance(ctx context.Context, userID uint, upd BalanceUpdate) (*models.User, error) {
	for _, v := range []*decimal.Decimal{upd.TotalBalance, upd.TradingBalance, upd.ReferralEarnings} {
		if v != nil && v.IsNegative() {
			return nil, ErrNegativeValue
		}
	}

	var user *models.User
	err := l.store.Atomic(ctx, func(r repository.Repos) error {
		u, err := r.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if upd.TotalBalance != nil {
			u.TotalBalance = *upd.TotalBalance
		}
		if upd.TradingBalance != nil {
			u.TradingBalance = *upd.TradingBalance
		}
		if upd.Profit != nil {
			u.Profit = *upd.Profit
		}
		if upd.ReferralEarnings != nil {
			u.ReferralEarnings = *upd.ReferralEarnings
		}
		if err := r.Users().SaveBalances(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.events.BalanceChanged(user.ID, user.Balances())
	return user, nil
}

// Balances returns the current ledger of a user.
func (l *Ledger) Balances(ctx context.Context, userID uint) (*models.Balances, error) {
	user, err := l.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	b := user.Balances()
	return &b, nil
}

func (l *Ledger) publish(user *models.User) {
	if user != nil {
		l.events.BalanceChanged(user.ID, user.Balances())
	}
}
