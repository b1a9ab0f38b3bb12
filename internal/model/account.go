package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bulk-purchased credential pair on one platform, subdivided into
// sellable profile slots. (login, platform, business) identifies it uniquely.
type Account struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Login        string          `gorm:"type:varchar(190);uniqueIndex:uniq_account_identity,priority:1;not null" json:"login"`
	PlatformID   int64           `gorm:"uniqueIndex:uniq_account_identity,priority:2;not null" json:"platform_id"`
	BusinessID   int64           `gorm:"uniqueIndex:uniq_account_identity,priority:3;index;not null" json:"business_id"`
	Secret       string          `gorm:"type:varchar(128);not null" json:"secret"`
	Provider     string          `gorm:"type:varchar(64)" json:"provider"`
	PurchaseDate time.Time       `gorm:"type:date;not null" json:"purchase_date"`
	AssignedTime string          `gorm:"type:varchar(32);not null" json:"assigned_time"` // free text, e.g. "1 mes", "15 días"
	CutoffDate   time.Time       `gorm:"type:date;not null" json:"cutoff_date"`          // computed from purchase date + assigned time
	TotalCost    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_cost"`
	SlotCount    int             `gorm:"not null" json:"slot_count"`
	Disabled     bool            `gorm:"not null;default:false" json:"disabled"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Profiles []Profile `gorm:"foreignKey:AccountID" json:"profiles,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// UnitCost is the per-slot share of the purchase cost.
func (a *Account) UnitCost() decimal.Decimal {
	if a.SlotCount <= 0 {
		return decimal.Zero
	}
	return a.TotalCost.DivRound(decimal.NewFromInt(int64(a.SlotCount)), 2)
}
