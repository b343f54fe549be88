package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot stores one daily close per symbol, written by cmd/pricesync.
type PriceSnapshot struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"size:50;not null;uniqueIndex:idx_price_symbol_date" json:"symbol"`
	Date      time.Time       `gorm:"not null;uniqueIndex:idx_price_symbol_date" json:"date"`
	Close     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"close"`
	CreatedAt time.Time       `json:"created_at"`
}

func (PriceSnapshot) TableName() string {
	return "price_snapshots"
}
