package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingPair is a catalog entry for a simulated market.
type TradingPair struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Symbol       string          `gorm:"uniqueIndex;size:20;not null" json:"symbol"`
	BaseAsset    string          `gorm:"size:10;not null" json:"base_asset"`
	QuoteAsset   string          `gorm:"size:10;not null" json:"quote_asset"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"base_price"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"current_price"`
	Spread       decimal.Decimal `gorm:"type:decimal(10,6);not null;default:0" json:"spread"`
	Volatility   decimal.Decimal `gorm:"type:decimal(10,6);not null;default:0" json:"volatility"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for TradingPair model
func (TradingPair) TableName() string {
	return "trading_pairs"
}

// PriceTick is a single simulated price update.
type PriceTick struct {
	PairID    uint            `json:"pair_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp int64           `json:"timestamp"`
}
