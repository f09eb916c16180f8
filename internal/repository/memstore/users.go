package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
)

type userRepo struct{ v view }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	defer r.v.write()()

	t := r.v.s.users
	for _, u := range t.rows {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email %s", repository.ErrDuplicate, user.Email)
		}
		if u.ReferralCode == user.ReferralCode {
			return fmt.Errorf("%w: referral code %s", repository.ErrDuplicate, user.ReferralCode)
		}
	}

	now := time.Now()
	user.ID = t.nextID()
	stamp(&user.CreatedAt, now)
	stamp(&user.UpdatedAt, now)
	t.put(r.v.j, user.ID, *user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	defer r.v.read()()

	if u, ok := r.v.s.users.get(id); ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.first(func(u *models.User) bool { return u.Email == email })
}

func (r userRepo) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	return r.first(func(u *models.User) bool { return u.ReferralCode == code })
}

func (r userRepo) first(match func(*models.User) bool) (*models.User, error) {
	defer r.v.read()()

	rows := r.v.s.users.find(match, false)
	if len(rows) == 0 {
		return nil, repository.ErrUserNotFound
	}
	return &rows[0], nil
}

func (r userRepo) List(_ context.Context, pg, pageSize int) ([]models.User, int64, error) {
	defer r.v.read()()

	rows := r.v.s.users.find(nil, true)
	return page(rows, pg, pageSize), int64(len(rows)), nil
}

func (r userRepo) ListByReferrer(_ context.Context, referrerID uint) ([]models.User, error) {
	defer r.v.read()()

	return r.v.s.users.find(func(u *models.User) bool {
		return u.ReferredBy != nil && *u.ReferredBy == referrerID
	}, false), nil
}

func (r userRepo) SaveBalances(_ context.Context, user *models.User) error {
	defer r.v.write()()

	t := r.v.s.users
	stored, ok := t.get(user.ID)
	if !ok || stored.Version != user.Version {
		return repository.ErrStaleRecord
	}

	now := time.Now()
	stored.TotalBalance = user.TotalBalance
	stored.TradingBalance = user.TradingBalance
	stored.Profit = user.Profit
	stored.ReferralEarnings = user.ReferralEarnings
	stored.TradeCount = user.TradeCount
	stored.Version = user.Version + 1
	stored.UpdatedAt = now
	t.put(r.v.j, user.ID, *stored)

	user.Version++
	user.UpdatedAt = now
	return nil
}

func (r userRepo) UpdateProfile(_ context.Context, user *models.User) error {
	defer r.v.write()()

	t := r.v.s.users
	stored, ok := t.get(user.ID)
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.FullName = user.FullName
	stored.IsAdmin = user.IsAdmin
	stored.IsQuickTradeLocked = user.IsQuickTradeLocked
	stored.IsCopyTradingEnabled = user.IsCopyTradingEnabled
	stored.ReferredBy = user.ReferredBy
	stored.UpdatedAt = time.Now()
	t.put(r.v.j, user.ID, *stored)
	return nil
}

func (r userRepo) ClearReferredBy(_ context.Context, referrerID uint) error {
	defer r.v.write()()

	t := r.v.s.users
	for _, u := range t.find(func(u *models.User) bool {
		return u.ReferredBy != nil && *u.ReferredBy == referrerID
	}, false) {
		u.ReferredBy = nil
		t.put(r.v.j, u.ID, u)
	}
	return nil
}

func (r userRepo) Delete(_ context.Context, id uint) error {
	defer r.v.write()()

	if !r.v.s.users.del(r.v.j, id) {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r userRepo) Count(_ context.Context) (int64, error) {
	defer r.v.read()()

	return int64(len(r.v.s.users.rows)), nil
}
