package model

import "time"

// Reference data owned outside the ledger core: platforms, businesses,
// clients and users only produce inputs to account/profile operations.

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLEADO"
)

type Platform struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Platform) TableName() string {
	return "platforms"
}

type Business struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Business) TableName() string {
	return "businesses"
}

type Client struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID int64     `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"type:varchar(128);not null" json:"name"`
	Phone      string    `gorm:"type:varchar(32)" json:"phone"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Client) TableName() string {
	return "clients"
}

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID   int64     `gorm:"index;not null" json:"business_id"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Email        string    `gorm:"type:varchar(190);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	Role         string    `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
