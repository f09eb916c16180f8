package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
)

type newsRepo struct{ v view }

func (r newsRepo) Create(_ context.Context, news *models.News) error {
	defer r.v.write()()

	t := r.v.s.news
	now := time.Now()
	news.ID = t.nextID()
	stamp(&news.CreatedAt, now)
	stamp(&news.UpdatedAt, now)
	t.put(r.v.j, news.ID, *news)
	return nil
}

func (r newsRepo) GetByID(_ context.Context, id uint) (*models.News, error) {
	defer r.v.read()()

	if news, ok := r.v.s.news.get(id); ok {
		return news, nil
	}
	return nil, repository.ErrNewsNotFound
}

func (r newsRepo) List(_ context.Context, publishedOnly bool) ([]models.News, error) {
	defer r.v.read()()

	return r.v.s.news.find(func(n *models.News) bool {
		return !publishedOnly || n.IsPublished
	}, true), nil
}

func (r newsRepo) Update(_ context.Context, news *models.News) error {
	defer r.v.write()()

	t := r.v.s.news
	if _, ok := t.get(news.ID); !ok {
		return repository.ErrNewsNotFound
	}
	news.UpdatedAt = time.Now()
	t.put(r.v.j, news.ID, *news)
	return nil
}

func (r newsRepo) Delete(_ context.Context, id uint) error {
	defer r.v.write()()

	if !r.v.s.news.del(r.v.j, id) {
		return repository.ErrNewsNotFound
	}
	return nil
}

type walletRepo struct{ v view }

func (r walletRepo) Upsert(_ context.Context, wallet *models.WalletAddress) error {
	defer r.v.write()()

	t := r.v.s.wallets
	wallet.UpdatedAt = time.Now()
	for id, w := range t.rows {
		if w.Currency == wallet.Currency {
			wallet.ID = id
			t.put(r.v.j, id, *wallet)
			return nil
		}
	}
	wallet.ID = t.nextID()
	t.put(r.v.j, wallet.ID, *wallet)
	return nil
}

func (r walletRepo) List(_ context.Context) ([]models.WalletAddress, error) {
	defer r.v.read()()

	rows := r.v.s.wallets.find(nil, false)
	sort.Slice(rows, func(a, b int) bool { return rows[a].Currency < rows[b].Currency })
	return rows, nil
}

func (r walletRepo) Delete(_ context.Context, currency string) error {
	defer r.v.write()()

	t := r.v.s.wallets
	for id, w := range t.rows {
		if w.Currency == currency {
			t.del(r.v.j, id)
			return nil
		}
	}
	return repository.ErrWalletNotFound
}
