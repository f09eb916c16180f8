package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral links an inviting user to the user they invited.
type Referral struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ReferrerID     uint            `gorm:"uniqueIndex:idx_referral_pair;not null" json:"referrer_id"`
	RefereeID      uint            `gorm:"uniqueIndex:idx_referral_pair;index;not null" json:"referee_id"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"commission_rate"`
	TotalEarnings  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_earnings"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Referral model
func (Referral) TableName() string {
	return "referrals"
}
