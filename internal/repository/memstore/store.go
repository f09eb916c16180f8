// Package memstore is an in-memory implementation of repository.Store.
// All tables share one lock; Atomic holds it for the whole unit of work and
// undoes recorded writes when the callback fails.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
)

// Store implements repository.Store with id-indexed maps.
type Store struct {
	mu sync.RWMutex

	users   *table[models.User]
	trades  *table[models.Trade]
	txs     *table[models.Transaction]
	convs   *table[models.Conversion]
	refs    *table[models.Referral]
	pairs   *table[models.TradingPair]
	news    *table[models.News]
	wallets *table[models.WalletAddress]
}

// New creates an empty Store
func New() *Store {
	return &Store{
		users:   newTable[models.User](),
		trades:  newTable[models.Trade](),
		txs:     newTable[models.Transaction](),
		convs:   newTable[models.Conversion](),
		refs:    newTable[models.Referral](),
		pairs:   newTable[models.TradingPair](),
		news:    newTable[models.News](),
		wallets: newTable[models.WalletAddress](),
	}
}

// Atomic runs fn under the store lock. Any error from fn reverts every
// write fn made.
func (s *Store) Atomic(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	if err := fn(view{s: s, j: j}); err != nil {
		j.rollback()
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserStore               { return view{s: s}.Users() }
func (s *Store) Trades() repository.TradeStore             { return view{s: s}.Trades() }
func (s *Store) Transactions() repository.TransactionStore { return view{s: s}.Transactions() }
func (s *Store) Conversions() repository.ConversionStore   { return view{s: s}.Conversions() }
func (s *Store) Referrals() repository.ReferralStore       { return view{s: s}.Referrals() }
func (s *Store) Pairs() repository.PairStore               { return view{s: s}.Pairs() }
func (s *Store) News() repository.NewsStore                { return view{s: s}.News() }
func (s *Store) Wallets() repository.WalletStore           { return view{s: s}.Wallets() }

// view is a Repos bound either to autocommit (j == nil) or to a unit of work.
type view struct {
	s *Store
	j *journal
}

func (v view) Users() repository.UserStore               { return userRepo{v} }
func (v view) Trades() repository.TradeStore             { return tradeRepo{v} }
func (v view) Transactions() repository.TransactionStore { return transactionRepo{v} }
func (v view) Conversions() repository.ConversionStore   { return conversionRepo{v} }
func (v view) Referrals() repository.ReferralStore       { return referralRepo{v} }
func (v view) Pairs() repository.PairStore               { return pairRepo{v} }
func (v view) News() repository.NewsStore                { return newsRepo{v} }
func (v view) Wallets() repository.WalletStore           { return walletRepo{v} }

// read takes the shared lock unless a unit of work already holds it.
func (v view) read() func() {
	if v.j != nil {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}

func (v view) write() func() {
	if v.j != nil {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// journal records undo steps for one unit of work.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type table[T any] struct {
	rows map[uint]T
	seq  uint
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[uint]T)}
}

// nextID hands out ids like a database sequence; it is not rolled back.
func (t *table[T]) nextID() uint {
	t.seq++
	return t.seq
}

func (t *table[T]) get(id uint) (*T, bool) {
	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return &row, true
}

func (t *table[T]) put(j *journal, id uint, row T) {
	prev, existed := t.rows[id]
	t.rows[id] = row
	j.record(func() {
		if existed {
			t.rows[id] = prev
		} else {
			delete(t.rows, id)
		}
	})
}

func (t *table[T]) del(j *journal, id uint) bool {
	prev, existed := t.rows[id]
	if !existed {
		return false
	}
	delete(t.rows, id)
	j.record(func() { t.rows[id] = prev })
	return true
}

// find returns copies of matching rows ordered by id; desc reverses it.
func (t *table[T]) find(match func(*T) bool, desc bool) []T {
	ids := make([]uint, 0, len(t.rows))
	for id, row := range t.rows {
		if match == nil || match(&row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool {
		if desc {
			return ids[a] > ids[b]
		}
		return ids[a] < ids[b]
	})

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func page[T any](rows []T, pg, pageSize int) []T {
	offset, limit := repository.Paginate(pg, pageSize)
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func stamp(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}
