package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

// AccountTransaction records a deposit into or withdrawal from a trading
// account. Amounts are always positive; the type carries the direction.
type AccountTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	AccountID       uint            `gorm:"index;not null" json:"account_id"`
	TransactionType string          `gorm:"size:20;not null" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	ExecutedAt      time.Time       `gorm:"index;not null" json:"executed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Account *TradingAccount `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (AccountTransaction) TableName() string {
	return "account_transactions"
}

func ValidTransactionType(t string) bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}
