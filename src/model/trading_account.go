package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeTopstep     = "topstep"
	AccountTypeIBKR        = "ibkr"
	AccountTypeNinjaTrader = "ninjatrader"
	AccountTypeTradovate   = "tradovate"
	AccountTypeOther       = "other"

	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
	AccountStatusArchived = "archived"
)

// TradingAccount is a user-owned logical ledger associated with a broker.
// At most one account per user carries IsDefault=true; the repository enforces
// that inside a transaction.
type TradingAccount struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"index;not null" json:"user_id"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	AccountType      string          `gorm:"size:30;not null;default:other" json:"account_type"`
	BrokerAccountID  string          `gorm:"size:100" json:"broker_account_id,omitempty"`
	Currency         string          `gorm:"size:3;not null;default:USD" json:"currency"`
	Status           string          `gorm:"size:20;not null;default:active" json:"status"`
	IsDefault        bool            `gorm:"not null;default:false" json:"is_default"`
	InitialCapital   decimal.Decimal `gorm:"type:numeric(20,8)" json:"initial_capital"`
	MLLEnabled       bool            `gorm:"not null;default:false" json:"mll_enabled"`
	MaximumLossLimit decimal.Decimal `gorm:"type:numeric(20,8)" json:"maximum_loss_limit"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Derived at read time, never stored.
	TradesCount int64 `gorm:"-" json:"trades_count"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (TradingAccount) TableName() string {
	return "trading_accounts"
}

// ValidAccountType reports whether t is one of the supported broker types.
func ValidAccountType(t string) bool {
	switch t {
	case AccountTypeTopstep, AccountTypeIBKR, AccountTypeNinjaTrader,
		AccountTypeTradovate, AccountTypeOther:
		return true
	}
	return false
}

func ValidAccountStatus(s string) bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusArchived:
		return true
	}
	return false
}
