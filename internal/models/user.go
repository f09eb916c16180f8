package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered platform user together with the four
// monetary fields the ledger maintains.
type User struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Email                string          `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName             string          `gorm:"size:100" json:"full_name"`
	PasswordHash         string          `gorm:"size:255;not null" json:"-"`
	IsAdmin              bool            `gorm:"default:false" json:"is_admin"`
	IsQuickTradeLocked   bool            `gorm:"default:false" json:"is_quick_trade_locked"`
	IsCopyTradingEnabled bool            `gorm:"default:false" json:"is_copy_trading_enabled"`
	ReferralCode         string          `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredBy           *uint           `gorm:"index" json:"referred_by,omitempty"`
	TotalBalance         decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_balance"`
	TradingBalance       decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"trading_balance"`
	Profit               decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"profit"`
	ReferralEarnings     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"referral_earnings"`
	TradeCount           int64           `gorm:"not null;default:0" json:"trade_count"`
	Version              int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Bucket returns the balance held in a conversion bucket.
func (u *User) Bucket(b Bucket) decimal.Decimal {
	switch b {
	case BucketTotal:
		return u.TotalBalance
	case BucketTrading:
		return u.TradingBalance
	case BucketProfit:
		return u.Profit
	}
	return decimal.Zero
}

// Balances is the client-facing view of a user's money.
type Balances struct {
	TotalBalance     decimal.Decimal `json:"total_balance"`
	TradingBalance   decimal.Decimal `json:"trading_balance"`
	Profit           decimal.Decimal `json:"profit"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
}

// Balances snapshots the monetary fields.
func (u *User) Balances() Balances {
	return Balances{
		TotalBalance:     u.TotalBalance,
		TradingBalance:   u.TradingBalance,
		Profit:           u.Profit,
		ReferralEarnings: u.ReferralEarnings,
	}
}
