package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType represents the trade direction
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// Valid reports whether t is a known direction.
func (t TradeType) Valid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// TradeStatus represents the trade lifecycle state
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Trade is a quick-trade position. Pnl and IsProfit are fixed when the
// trade is opened; closing only realizes them.
type Trade struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"index;not null" json:"user_id"`
	PairID     uint             `gorm:"index;not null" json:"pair_id"`
	Symbol     string           `gorm:"size:20;not null" json:"symbol"`
	Type       TradeType        `gorm:"size:10;not null" json:"type"`
	Amount     decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"amount"`
	EntryPrice decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	ExitPrice  *decimal.Decimal `gorm:"type:decimal(20,8)" json:"exit_price"`
	Pnl        decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"pnl"`
	IsProfit   bool             `gorm:"not null" json:"is_profit"`
	Status     TradeStatus      `gorm:"size:10;not null;index;default:'OPEN'" json:"status"`
	Duration   int              `gorm:"not null" json:"duration"`
	TakeProfit *decimal.Decimal `gorm:"type:decimal(20,8)" json:"take_profit,omitempty"`
	StopLoss   *decimal.Decimal `gorm:"type:decimal(20,8)" json:"stop_loss,omitempty"`
	Sequence   int64            `gorm:"not null" json:"sequence"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
	ClosedAt   *time.Time       `json:"closed_at"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// IsOpen returns true while the trade has not been settled
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// DueAt is the instant the deferred auto-close should fire.
func (t *Trade) DueAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.Duration) * time.Second)
}
