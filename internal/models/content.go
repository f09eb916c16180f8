package models

import "time"

// News is an announcement shown on the dashboard.
type News struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	ImageURL    string    `gorm:"size:500" json:"image_url,omitempty"`
	IsPublished bool      `gorm:"not null;index" json:"is_published"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for News model
func (News) TableName() string {
	return "news"
}

// WalletAddress is the platform deposit address for a currency.
type WalletAddress struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Currency  string    `gorm:"uniqueIndex;size:10;not null" json:"currency"`
	Network   string    `gorm:"size:30" json:"network"`
	Address   string    `gorm:"size:255;not null" json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for WalletAddress model
func (WalletAddress) TableName() string {
	return "wallet_addresses"
}
