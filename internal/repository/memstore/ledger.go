package memstore

import (
	"context"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/shopspring/decimal"
)

type transactionRepo struct{ v view }

func (r transactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	defer r.v.write()()

	t := r.v.s.txs
	now := time.Now()
	tx.ID = t.nextID()
	stamp(&tx.CreatedAt, now)
	stamp(&tx.UpdatedAt, now)
	t.put(r.v.j, tx.ID, *tx)
	return nil
}

func (r transactionRepo) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	defer r.v.read()()

	if tx, ok := r.v.s.txs.get(id); ok {
		return tx, nil
	}
	return nil, repository.ErrTransactionNotFound
}

func (r transactionRepo) MarkProcessed(_ context.Context, tx *models.Transaction) error {
	defer r.v.write()()

	t := r.v.s.txs
	stored, ok := t.get(tx.ID)
	if !ok || stored.Status != models.TransactionPending {
		return repository.ErrStaleRecord
	}
	stored.Status = tx.Status
	stored.AdminNotes = tx.AdminNotes
	stored.ProcessedBy = tx.ProcessedBy
	stored.ProcessedAt = tx.ProcessedAt
	stored.UpdatedAt = time.Now()
	t.put(r.v.j, tx.ID, *stored)
	return nil
}

func (r transactionRepo) ListByUser(_ context.Context, userID uint, pg, pageSize int) ([]models.Transaction, int64, error) {
	defer r.v.read()()

	rows := r.v.s.txs.find(func(tx *models.Transaction) bool { return tx.UserID == userID }, true)
	return page(rows, pg, pageSize), int64(len(rows)), nil
}

func (r transactionRepo) List(_ context.Context, status models.TransactionStatus, pg, pageSize int) ([]models.Transaction, int64, error) {
	defer r.v.read()()

	rows := r.v.s.txs.find(func(tx *models.Transaction) bool {
		return status == "" || tx.Status == status
	}, true)
	return page(rows, pg, pageSize), int64(len(rows)), nil
}

func (r transactionRepo) CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error) {
	_, total, err := r.List(ctx, status, 1, 1)
	return total, err
}

func (r transactionRepo) DeleteByUser(_ context.Context, userID uint) error {
	defer r.v.write()()

	t := r.v.s.txs
	for _, tx := range t.find(func(tx *models.Transaction) bool { return tx.UserID == userID }, false) {
		t.del(r.v.j, tx.ID)
	}
	return nil
}

type conversionRepo struct{ v view }

func (r conversionRepo) Create(_ context.Context, conv *models.Conversion) error {
	defer r.v.write()()

	t := r.v.s.convs
	conv.ID = t.nextID()
	stamp(&conv.CreatedAt, time.Now())
	t.put(r.v.j, conv.ID, *conv)
	return nil
}

func (r conversionRepo) ListByUser(_ context.Context, userID uint, pg, pageSize int) ([]models.Conversion, int64, error) {
	defer r.v.read()()

	rows := r.v.s.convs.find(func(c *models.Conversion) bool { return c.UserID == userID }, true)
	return page(rows, pg, pageSize), int64(len(rows)), nil
}

func (r conversionRepo) DeleteByUser(_ context.Context, userID uint) error {
	defer r.v.write()()

	t := r.v.s.convs
	for _, c := range t.find(func(c *models.Conversion) bool { return c.UserID == userID }, false) {
		t.del(r.v.j, c.ID)
	}
	return nil
}

type referralRepo struct{ v view }

func (r referralRepo) Create(_ context.Context, ref *models.Referral) error {
	defer r.v.write()()

	t := r.v.s.refs
	for _, existing := range t.rows {
		if existing.ReferrerID == ref.ReferrerID && existing.RefereeID == ref.RefereeID {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	ref.ID = t.nextID()
	stamp(&ref.CreatedAt, now)
	stamp(&ref.UpdatedAt, now)
	t.put(r.v.j, ref.ID, *ref)
	return nil
}

func (r referralRepo) GetByPair(_ context.Context, referrerID, refereeID uint) (*models.Referral, error) {
	defer r.v.read()()

	rows := r.v.s.refs.find(func(ref *models.Referral) bool {
		return ref.ReferrerID == referrerID && ref.RefereeID == refereeID
	}, false)
	if len(rows) == 0 {
		return nil, repository.ErrReferralNotFound
	}
	return &rows[0], nil
}

func (r referralRepo) AddEarnings(_ context.Context, id uint, amount decimal.Decimal) error {
	defer r.v.write()()

	t := r.v.s.refs
	ref, ok := t.get(id)
	if !ok {
		return repository.ErrReferralNotFound
	}
	ref.TotalEarnings = ref.TotalEarnings.Add(amount)
	ref.UpdatedAt = time.Now()
	t.put(r.v.j, id, *ref)
	return nil
}

func (r referralRepo) ListByReferrer(_ context.Context, referrerID uint) ([]models.Referral, error) {
	defer r.v.read()()

	return r.v.s.refs.find(func(ref *models.Referral) bool { return ref.ReferrerID == referrerID }, false), nil
}

func (r referralRepo) DeleteByUser(_ context.Context, userID uint) error {
	defer r.v.write()()

	t := r.v.s.refs
	for _, ref := range t.find(func(ref *models.Referral) bool {
		return ref.ReferrerID == userID || ref.RefereeID == userID
	}, false) {
		t.del(r.v.j, ref.ID)
	}
	return nil
}
