package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TradeTypeLong  = "Long"
	TradeTypeShort = "Short"
)

// Trade is a single journaled execution. PnL fields are computed server-side
// on every write; clients only read them.
type Trade struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"index;not null" json:"user_id"`
	AccountID  uint             `gorm:"index;not null" json:"account_id"`
	Symbol     string           `gorm:"size:50;not null" json:"symbol"`
	TradeType  string           `gorm:"size:10;not null" json:"trade_type"`
	Size       decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"size"`
	EntryPrice decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"entry_price"`
	ExitPrice  *decimal.Decimal `gorm:"type:numeric(20,8)" json:"exit_price,omitempty"`
	EntryTime  time.Time        `gorm:"index;not null" json:"entry_time"`
	ExitTime   *time.Time       `gorm:"index" json:"exit_time,omitempty"`
	PnL        decimal.Decimal  `gorm:"type:numeric(20,8)" json:"pnl"`
	Fees       decimal.Decimal  `gorm:"type:numeric(20,8)" json:"fees"`
	NetPnL     decimal.Decimal  `gorm:"type:numeric(20,8)" json:"net_pnl"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`

	Account *TradingAccount `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Trade) TableName() string {
	return "trades"
}

// Closed reports whether the trade has an exit fill.
func (t *Trade) Closed() bool {
	return t.ExitPrice != nil && t.ExitTime != nil
}

// ComputePnL recomputes PnL and NetPnL from the fill prices. Open trades
// carry zero realized PnL.
func (t *Trade) ComputePnL() {
	if !t.Closed() {
		t.PnL = decimal.Zero
		t.NetPnL = decimal.Zero.Sub(t.Fees)
		return
	}

	diff := t.ExitPrice.Sub(t.EntryPrice)
	if t.TradeType == TradeTypeShort {
		diff = diff.Neg()
	}

	t.PnL = diff.Mul(t.Size)
	t.NetPnL = t.PnL.Sub(t.Fees)
}

func ValidTradeType(t string) bool {
	return t == TradeTypeLong || t == TradeTypeShort
}
