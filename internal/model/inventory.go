package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStock is the perpetual-inventory aggregate for one
// (platform, business) key: current slot stock, moving-average unit cost and
// total value. Invariant: TotalValue == round(Stock × AvgCost, 2).
//
// The row is the contention point for every ledger mutation; Version backs
// optimistic concurrency, every update is conditional on it.
type InventoryStock struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PlatformID int64           `gorm:"uniqueIndex:uniq_stock_key,priority:1;not null" json:"platform_id"`
	BusinessID int64           `gorm:"uniqueIndex:uniq_stock_key,priority:2;index;not null" json:"business_id"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	AvgCost    decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"avg_cost"`
	TotalValue decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_value"`
	Version    int             `gorm:"not null;default:0" json:"version"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InventoryStock) TableName() string {
	return "inventory_stock"
}

// ExpectedValue recomputes the invariant side of the aggregate.
func (s *InventoryStock) ExpectedValue() decimal.Decimal {
	return decimal.NewFromInt(int64(s.Stock)).Mul(s.AvgCost).Round(2)
}

// InventoryMovement is one append-only ledger row. Exactly one of the
// entry/exit sides is populated; the balance columns record the aggregate
// right after the movement was applied. Rows are never updated or deleted.
type InventoryMovement struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MovementNo  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"movement_no"`
	PlatformID  int64     `gorm:"index;not null" json:"platform_id"`
	BusinessID  int64     `gorm:"index;not null" json:"business_id"`
	Description string    `gorm:"type:varchar(256)" json:"description"`

	EntryQty      *int             `json:"entry_qty"`
	EntryUnitCost *decimal.Decimal `gorm:"type:decimal(12,4)" json:"entry_unit_cost"`
	EntryTotal    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"entry_total"`

	ExitQty      *int             `json:"exit_qty"`
	ExitUnitCost *decimal.Decimal `gorm:"type:decimal(12,4)" json:"exit_unit_cost"`
	ExitTotal    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"exit_total"`

	BalanceQty      int             `gorm:"not null" json:"balance_qty"`
	BalanceUnitCost decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"balance_unit_cost"`
	BalanceTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_total"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
