package service

import (
	"context"
	"errors"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

// ReferralService propagates trade commissions to referrers
type ReferralService struct {
	store  repository.Store
	ledger *Ledger
	rate   decimal.Decimal
}

// NewReferralService creates a new ReferralService
func NewReferralService(store repository.Store, ledger *Ledger, rate decimal.Decimal) *ReferralService {
	return &ReferralService{store: store, ledger: ledger, rate: rate}
}

// Rate returns the commission rate applied to a referee's profit.
func (s *ReferralService) Rate() decimal.Decimal {
	return s.rate
}

// Commission computes the referrer's share of a profitable pnl.
func (s *ReferralService) Commission(pnl decimal.Decimal) decimal.Decimal {
	if !pnl.IsPositive() {
		return decimal.Zero
	}
	return pnl.Mul(s.rate).Round(8)
}

// Credit adds amount to the referrer's referral earnings and to the
// referral link's running total. An unknown referrer is a no-op and
// returns a nil user.
func (s *ReferralService) Credit(ctx context.Context, r repository.Repos, referrerID, refereeID uint, amount decimal.Decimal) (*models.User, error) {
	if !amount.IsPositive() {
		return nil, nil
	}

	referrer, err := s.ledger.Apply(ctx, r, referrerID, Delta{ReferralEarnings: amount})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	link, err := r.Referrals().GetByPair(ctx, referrerID, refereeID)
	switch {
	case err == nil:
		if err := r.Referrals().AddEarnings(ctx, link.ID, amount); err != nil {
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	return referrer, nil
}

// Link records that referrer invited referee.
func (s *ReferralService) Link(ctx context.Context, r repository.Repos, referrerID, refereeID uint) error {
	err := r.Referrals().Create(ctx, &models.Referral{
		ReferrerID:     referrerID,
		RefereeID:      refereeID,
		CommissionRate: s.rate,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}

// RefereeSummary is one invited user as shown to the referrer.
type RefereeSummary struct {
	UserID        uint            `json:"user_id"`
	FullName      string          `json:"full_name"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	JoinedAt      string          `json:"joined_at"`
}

// ReferralSummary is the referral dashboard of a user
type ReferralSummary struct {
	ReferralCode     string           `json:"referral_code"`
	CommissionRate   decimal.Decimal  `json:"commission_rate"`
	ReferralEarnings decimal.Decimal  `json:"referral_earnings"`
	Referees         []RefereeSummary `json:"referees"`
}

// Summary lists the users referred by userID and what each has earned them.
func (s *ReferralService) Summary(ctx context.Context, userID uint) (*ReferralSummary, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := s.store.Referrals().ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned := make(map[uint]decimal.Decimal, len(links))
	for _, l := range links {
		earned[l.RefereeID] = l.TotalEarnings
	}

	referees, err := s.store.Users().ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &ReferralSummary{
		ReferralCode:     user.ReferralCode,
		CommissionRate:   s.rate,
		ReferralEarnings: user.ReferralEarnings,
		Referees:         make([]RefereeSummary, 0, len(referees)),
	}
	for _, u := range referees {
		summary.Referees = append(summary.Referees, RefereeSummary{
			UserID:        u.ID,
			FullName:      u.FullName,
			TotalEarnings: earned[u.ID],
			JoinedAt:      u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return summary, nil
}
