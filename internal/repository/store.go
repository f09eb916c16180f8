package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgemarket/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is the kind shared by every "no such row" error.
	ErrNotFound = errors.New("not found")
	// ErrStaleRecord means a conditional write lost against a concurrent one.
	ErrStaleRecord = errors.New("record was modified concurrently")
	// ErrDuplicate means a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")

	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrTradeNotFound       = fmt.Errorf("trade %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrReferralNotFound    = fmt.Errorf("referral %w", ErrNotFound)
	ErrPairNotFound        = fmt.Errorf("trading pair %w", ErrNotFound)
	ErrNewsNotFound        = fmt.Errorf("news %w", ErrNotFound)
	ErrWalletNotFound      = fmt.Errorf("wallet address %w", ErrNotFound)
)

// UserStore persists users and their ledger fields.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	List(ctx context.Context, page, pageSize int) ([]models.User, int64, error)
	ListByReferrer(ctx context.Context, referrerID uint) ([]models.User, error)
	// SaveBalances writes the monetary fields and trade counter if the
	// stored version still equals user.Version, then bumps the version.
	SaveBalances(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	ClearReferredBy(ctx context.Context, referrerID uint) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// TradeStore persists quick trades.
type TradeStore interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByID(ctx context.Context, id uint) (*models.Trade, error)
	// MarkClosed settles the trade only if it is still OPEN.
	MarkClosed(ctx context.Context, trade *models.Trade) error
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Trade, int64, error)
	ListOpen(ctx context.Context) ([]models.Trade, error)
	CountOpen(ctx context.Context) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// TransactionStore persists deposit and withdrawal requests.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	// MarkProcessed records the review only if the row is still PENDING.
	MarkProcessed(ctx context.Context, tx *models.Transaction) error
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Transaction, int64, error)
	List(ctx context.Context, status models.TransactionStatus, page, pageSize int) ([]models.Transaction, int64, error)
	CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// ConversionStore persists bucket conversions.
type ConversionStore interface {
	Create(ctx context.Context, conv *models.Conversion) error
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Conversion, int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// ReferralStore persists referrer/referee links.
type ReferralStore interface {
	Create(ctx context.Context, ref *models.Referral) error
	GetByPair(ctx context.Context, referrerID, refereeID uint) (*models.Referral, error)
	AddEarnings(ctx context.Context, id uint, amount decimal.Decimal) error
	ListByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// PairStore persists the trading pair catalog.
type PairStore interface {
	Create(ctx context.Context, pair *models.TradingPair) error
	GetByID(ctx context.Context, id uint) (*models.TradingPair, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.TradingPair, error)
	List(ctx context.Context) ([]models.TradingPair, error)
	UpdatePrice(ctx context.Context, id uint, price decimal.Decimal) error
}

// NewsStore persists dashboard announcements.
type NewsStore interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id uint) (*models.News, error)
	List(ctx context.Context, publishedOnly bool) ([]models.News, error)
	Update(ctx context.Context, news *models.News) error
	Delete(ctx context.Context, id uint) error
}

// WalletStore persists platform deposit addresses.
type WalletStore interface {
	Upsert(ctx context.Context, wallet *models.WalletAddress) error
	List(ctx context.Context) ([]models.WalletAddress, error)
	Delete(ctx context.Context, currency string) error
}

// Repos groups the per-entity stores of one unit of work.
type Repos interface {
	Users() UserStore
	Trades() TradeStore
	Transactions() TransactionStore
	Conversions() ConversionStore
	Referrals() ReferralStore
	Pairs() PairStore
	News() NewsStore
	Wallets() WalletStore
}

// Store is the keyed storage behind every service. Reads through the
// embedded Repos are autocommit; Atomic runs fn as one unit of work and
// rolls back every write if fn returns an error.
type Store interface {
	Repos
	Atomic(ctx context.Context, fn func(r Repos) error) error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db      *gorm.DB
	locking bool
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Atomic runs fn inside a database transaction. Rows fetched by ID inside
// fn are read with SELECT ... FOR UPDATE.
func (s *GormStore) Atomic(ctx context.Context, fn func(r Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, locking: true})
	})
}

func (s *GormStore) Users() UserStore {
	return &UserRepository{db: s.db, locking: s.locking}
}

func (s *GormStore) Trades() TradeStore {
	return &TradeRepository{db: s.db, locking: s.locking}
}

func (s *GormStore) Transactions() TransactionStore {
	return &TransactionRepository{db: s.db, locking: s.locking}
}

func (s *GormStore) Conversions() ConversionStore {
	return &ConversionRepository{db: s.db}
}

func (s *GormStore) Referrals() ReferralStore {
	return &ReferralRepository{db: s.db}
}

func (s *GormStore) Pairs() PairStore {
	return &PairRepository{db: s.db}
}

func (s *GormStore) News() NewsStore {
	return &NewsRepository{db: s.db}
}

func (s *GormStore) Wallets() WalletStore {
	return &WalletRepository{db: s.db}
}

// AutoMigrate creates or updates every table the store uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trade{},
		&models.Transaction{},
		&models.Conversion{},
		&models.Referral{},
		&models.TradingPair{},
		&models.News{},
		&models.WalletAddress{},
	)
}

func forUpdate(db *gorm.DB, locking bool) *gorm.DB {
	if locking {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Paginate normalizes page arguments into an offset and limit.
func Paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
