// Package analytics computes the account aggregates served by the dashboard.
// All arithmetic runs on decimals; handlers never touch floats.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradejournal/src/model"
)

var hundred = decimal.NewFromInt(100)

type Summary struct {
	GrossPnL    decimal.Decimal `json:"gross_pnl"`
	Fees        decimal.Decimal `json:"fees"`
	NetPnL      decimal.Decimal `json:"net_pnl"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Balance     decimal.Decimal `json:"balance"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
	WinRate     decimal.Decimal `json:"win_rate"`

	TradeCount   int `json:"trade_count"`
	ClosedCount  int `json:"closed_count"`
	OpenCount    int `json:"open_count"`
	WinCount     int `json:"win_count"`
	LossCount    int `json:"loss_count"`
	ScratchCount int `json:"scratch_count"`
}

// Summarize aggregates one account's trades and cash movements.
// initialCapital seeds the balance and the equity curve used for drawdown.
func Summarize(
	initialCapital decimal.Decimal,
	trades []model.Trade,
	txns []model.AccountTransaction,
) Summary {

	summary := Summary{TradeCount: len(trades)}

	closed := make([]model.Trade, 0, len(trades))
	for _, trade := range trades {
		if !trade.Closed() {
			summary.OpenCount++
			continue
		}
		closed = append(closed, trade)
	}
	summary.ClosedCount = len(closed)

	for _, trade := range closed {
		summary.GrossPnL = summary.GrossPnL.Add(trade.PnL)
		summary.Fees = summary.Fees.Add(trade.Fees)
		summary.NetPnL = summary.NetPnL.Add(trade.NetPnL)

		switch trade.NetPnL.Sign() {
		case 1:
			summary.WinCount++
		case -1:
			summary.LossCount++
		default:
			summary.ScratchCount++
		}
	}

	for _, txn := range txns {
		switch txn.TransactionType {
		case model.TransactionTypeDeposit:
			summary.Deposits = summary.Deposits.Add(txn.Amount)
		case model.TransactionTypeWithdrawal:
			summary.Withdrawals = summary.Withdrawals.Add(txn.Amount)
		}
	}

	summary.Balance = initialCapital.
		Add(summary.Deposits).
		Sub(summary.Withdrawals).
		Add(summary.NetPnL)

	// Scratch trades decide nothing, so they stay out of the win rate.
	if decided := summary.WinCount + summary.LossCount; decided > 0 {
		summary.WinRate = decimal.NewFromInt(int64(summary.WinCount)).
			Div(decimal.NewFromInt(int64(decided))).
			Mul(hundred).
			Round(2)
	}

	summary.MaxDrawdown = maxDrawdown(initialCapital, closed)

	return summary
}

// maxDrawdown walks the realized equity curve in exit order and returns the
// largest peak-to-trough drop as a non-negative value.
func maxDrawdown(initialCapital decimal.Decimal, closed []model.Trade) decimal.Decimal {
	ordered := make([]model.Trade, len(closed))
	copy(ordered, closed)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTime.Before(*ordered[j].ExitTime)
	})

	equity := initialCapital
	peak := initialCapital
	drawdown := decimal.Zero

	for _, trade := range ordered {
		equity = equity.Add(trade.NetPnL)

		if equity.GreaterThan(peak) {
			peak = equity
			continue
		}

		if dd := peak.Sub(equity); dd.GreaterThan(drawdown) {
			drawdown = dd
		}
	}

	return drawdown
}
