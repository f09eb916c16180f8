package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents a funding direction
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionStatus represents the approval state
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
	TransactionRejected TransactionStatus = "REJECTED"
)

// Transaction is a deposit or withdrawal request awaiting admin review.
type Transaction struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Reference   string            `gorm:"uniqueIndex;size:36;not null" json:"reference"`
	UserID      uint              `gorm:"index;not null" json:"user_id"`
	Type        TransactionType   `gorm:"size:20;not null" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"amount"`
	Method      string            `gorm:"size:50;not null" json:"method"`
	Currency    string            `gorm:"size:10;not null;default:'USD'" json:"currency"`
	Address     string            `gorm:"size:255" json:"address,omitempty"`
	Status      TransactionStatus `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	AdminNotes  string            `gorm:"size:500" json:"admin_notes,omitempty"`
	ProcessedBy *uint             `json:"processed_by,omitempty"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// IsPending returns true if the transaction has not been processed
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionPending
}
