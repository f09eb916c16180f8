package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is one of the three convertible balance subdivisions
type Bucket string

const (
	BucketTotal   Bucket = "TOTAL"
	BucketTrading Bucket = "TRADING"
	BucketProfit  Bucket = "PROFIT"
)

// Valid reports whether b names a known bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketTotal, BucketTrading, BucketProfit:
		return true
	}
	return false
}

// Conversion records a transfer between two buckets of the same user.
type Conversion struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	FromType  Bucket          `gorm:"size:10;not null" json:"from_type"`
	ToType    Bucket          `gorm:"size:10;not null" json:"to_type"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Conversion model
func (Conversion) TableName() string {
	return "conversions"
}
