package models

import (
	"time"
)

type User struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string     `gorm:"type:varchar(50);not null" json:"name"`
	Surname       string     `gorm:"type:varchar(50);not null" json:"surname"`
	Address       string     `gorm:"type:varchar(120)" json:"address"`
	Email         string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Key           []byte     `gorm:"type:varbinary(64)" json:"-"`
	PasswordHash  []byte     `gorm:"type:varbinary(64)" json:"-"`
	Role          string     `gorm:"type:varchar(10);default:'user'" json:"role"`
	BankAccountID *string    `gorm:"type:varchar(36);uniqueIndex" json:"bank_account_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BankAccount is the ledger row; Balance is only mutated inside
// repository-level transactions.
type BankAccount struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Balance   float64   `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
