package repository

import (
	"context"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/edgemarket/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type statement struct {
	sql  string
	vars []interface{}
}

type sqlRecorder struct {
	mu    sync.Mutex
	stmts []statement
}

func (r *sqlRecorder) capture(tx *gorm.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, statement{sql: tx.Statement.SQL.String(), vars: tx.Statement.Vars})
}

func (r *sqlRecorder) last(t *testing.T) statement {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.stmts)
	return r.stmts[len(r.stmts)-1]
}

// dryRunDB builds postgres SQL without a server and records every query
// and update statement.
func dryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=edgemarket dbname=edgemarket sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)

	rec := &sqlRecorder{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("edgemarket:capture_query", rec.capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("edgemarket:capture_update", rec.capture))
	return db, rec
}

func TestLockingReadsUseForUpdate(t *testing.T) {
	db, rec := dryRunDB(t)
	ctx := context.Background()

	plain := &GormStore{db: db}
	locked := &GormStore{db: db, locking: true}

	_, _ = plain.Users().GetByID(ctx, 1)
	assert.NotContains(t, rec.last(t).sql, "FOR UPDATE")

	_, _ = locked.Users().GetByID(ctx, 1)
	assert.Contains(t, rec.last(t).sql, "FOR UPDATE")
	_, _ = locked.Trades().GetByID(ctx, 1)
	assert.Contains(t, rec.last(t).sql, "FOR UPDATE")
	_, _ = locked.Transactions().GetByID(ctx, 1)
	assert.Contains(t, rec.last(t).sql, "FOR UPDATE")
}

func TestConditionalWritesAreGuarded(t *testing.T) {
	db, rec := dryRunDB(t)
	ctx := context.Background()
	store := NewGormStore(db)

	// a dry run affects no rows, which is exactly the lost-race path
	user := &models.User{ID: 7, Version: 3, TradingBalance: decimal.NewFromInt(10)}
	err := store.Users().SaveBalances(ctx, user)
	assert.ErrorIs(t, err, ErrStaleRecord)
	assert.Equal(t, int64(3), user.Version, "version only advances on a successful write")
	stmt := rec.last(t)
	assert.Regexp(t, regexp.MustCompile(`WHERE id = \$\d+ AND version = \$\d+`), stmt.sql)
	assert.Contains(t, stmt.vars, int64(3))
	assert.Contains(t, stmt.vars, int64(4))

	now := time.Now()
	trade := &models.Trade{ID: 9, Status: models.TradeStatusOpen, ClosedAt: &now}
	err = store.Trades().MarkClosed(ctx, trade)
	assert.ErrorIs(t, err, ErrStaleRecord)
	assert.Equal(t, models.TradeStatusOpen, trade.Status)
	stmt = rec.last(t)
	assert.Regexp(t, regexp.MustCompile(`WHERE id = \$\d+ AND status = \$\d+`), stmt.sql)
	assert.Contains(t, stmt.vars, models.TradeStatusOpen)

	tx := &models.Transaction{ID: 11, Status: models.TransactionApproved, ProcessedAt: &now}
	err = store.Transactions().MarkProcessed(ctx, tx)
	assert.ErrorIs(t, err, ErrStaleRecord)
	stmt = rec.last(t)
	assert.Regexp(t, regexp.MustCompile(`WHERE id = \$\d+ AND status = \$\d+`), stmt.sql)
	assert.Contains(t, stmt.vars, models.TransactionPending)
}

// liveDB connects to the database named by EDGEMARKET_TEST_DSN, skipping
// the test when it is unset.
func liveDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("EDGEMARKET_TEST_DSN")
	if dsn == "" {
		t.Skip("EDGEMARKET_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.Exec("TRUNCATE users, trades, transactions RESTART IDENTITY CASCADE").Error)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, store *GormStore, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", ReferralCode: email[:4]}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestPostgresConditionalWrites(t *testing.T) {
	store := NewGormStore(liveDB(t))
	ctx := context.Background()
	user := seedUser(t, store, "ledger@example.com")

	stale := *user
	user.TradingBalance = decimal.NewFromInt(100)
	require.NoError(t, store.Users().SaveBalances(ctx, user))
	assert.Equal(t, int64(1), user.Version)

	stale.TradingBalance = decimal.NewFromInt(5)
	assert.ErrorIs(t, store.Users().SaveBalances(ctx, &stale), ErrStaleRecord)

	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.TradingBalance.Equal(decimal.NewFromInt(100)))

	trade := &models.Trade{UserID: user.ID, PairID: 1, Symbol: "BTC/USDT", Type: models.TradeTypeBuy,
		Amount: decimal.NewFromInt(10), EntryPrice: decimal.NewFromInt(1), Status: models.TradeStatusOpen, Duration: 60, Sequence: 1}
	require.NoError(t, store.Trades().Create(ctx, trade))
	now := time.Now()
	trade.ClosedAt = &now
	require.NoError(t, store.Trades().MarkClosed(ctx, trade))
	assert.ErrorIs(t, store.Trades().MarkClosed(ctx, trade), ErrStaleRecord)

	tx := &models.Transaction{Reference: "ref-1", UserID: user.ID, Type: models.TransactionDeposit,
		Amount: decimal.NewFromInt(5), Method: "card", Currency: "USD", Status: models.TransactionPending}
	require.NoError(t, store.Transactions().Create(ctx, tx))
	tx.Status = models.TransactionApproved
	tx.ProcessedAt = &now
	require.NoError(t, store.Transactions().MarkProcessed(ctx, tx))
	tx.Status = models.TransactionRejected
	assert.ErrorIs(t, store.Transactions().MarkProcessed(ctx, tx), ErrStaleRecord)
}

func TestPostgresAtomicSerializesWriters(t *testing.T) {
	store := NewGormStore(liveDB(t))
	ctx := context.Background()
	user := seedUser(t, store, "race@example.com")

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Atomic(ctx, func(r Repos) error {
				u, err := r.Users().GetByID(ctx, user.ID)
				if err != nil {
					return err
				}
				u.TradingBalance = u.TradingBalance.Add(decimal.NewFromInt(1))
				return r.Users().SaveBalances(ctx, u)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.TradingBalance.Equal(decimal.NewFromInt(writers)), "trading = %s", stored.TradingBalance)
	assert.Equal(t, int64(writers), stored.Version)
}
