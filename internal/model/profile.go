package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is one billable slot sold out of an account. Cost is fixed at sale
// time from the ledger's moving average; only a deliberate account-cost edit
// may rewrite it afterwards. A deactivated profile becomes a historical row:
// it detaches from its account and keeps the login/platform snapshot taken at
// deactivation.
type Profile struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleNo       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"sale_no"`
	AccountID    *int64          `gorm:"index" json:"account_id"` // nil once detached
	BusinessID   int64           `gorm:"index;not null" json:"business_id"`
	ClientID     int64           `gorm:"index;not null" json:"client_id"`
	SellerID     int64           `gorm:"index;not null" json:"seller_id"`
	AssignedTime string          `gorm:"type:varchar(32);not null" json:"assigned_time"`
	SaleDate     time.Time       `gorm:"type:date;not null" json:"sale_date"`
	CutoffDate   *time.Time      `gorm:"type:date" json:"cutoff_date"` // cleared on deactivation
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Cost         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost"`
	Gain         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"gain"`
	Active       bool            `gorm:"not null;default:true;index" json:"active"`

	// Snapshot fields, populated when the profile is deactivated.
	DeactivatedAt *time.Time `json:"deactivated_at"`
	AccountLogin  string     `gorm:"type:varchar(190)" json:"account_login"`
	PlatformName  string     `gorm:"type:varchar(64)" json:"platform_name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Client  *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Seller  *User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}
