package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Order is the order a source lists trades in.
type Order string

const (
	NewestFirst Order = "newest_first"
	OldestFirst Order = "oldest_first"
)

// ParseOrder accepts "" as NewestFirst, which is what the bot's history
// action returns.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", NewestFirst:
		return NewestFirst, nil
	case OldestFirst:
		return OldestFirst, nil
	}
	return "", fmt.Errorf("unknown history order %q", s)
}

// Trade is one closed trade.
type Trade struct {
	Type       string
	OpenTime   string
	CloseTime  string
	OpenPrice  decimal.NullDecimal
	ClosePrice decimal.NullDecimal
	Lots       decimal.NullDecimal
	Profit     decimal.Decimal
	Duration   int64 // seconds
}

// NewTrade reads a trade history record.
func NewTrade(r Record) Trade {
	return Trade{
		Type:       strings.ToUpper(r.String(TradeType)),
		OpenTime:   r.String(OpenTime),
		CloseTime:  r.String(CloseTime),
		OpenPrice:  r.NullNumber(OpenPrice),
		ClosePrice: r.NullNumber(ClosePrice),
		Lots:       r.NullNumber(Lots),
		Profit:     r.Number(Profit),
		Duration:   r.Int(Duration),
	}
}

// NewTrades reads every record of a trade history list.
func NewTrades(rs []Record) []Trade {
	out := make([]Trade, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewTrade(r))
	}
	return out
}

// Limit keeps the n most recent trades, preserving the source order.
func Limit(trades []Trade, n int, order Order) []Trade {
	if n <= 0 || len(trades) <= n {
		return trades
	}
	if order == OldestFirst {
		return trades[len(trades)-n:]
	}
	return trades[:n]
}

// RecentWindow returns a new slice holding at most n of the most recent
// trades, oldest first.
func RecentWindow(trades []Trade, n int, order Order) []Trade {
	recent := Limit(trades, n, order)
	out := make([]Trade, len(recent))
	copy(out, recent)
	if order != OldestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Outcomes counts trades by the sign of their profit. Flat trades count as
// neither a win nor a loss.
type Outcomes struct {
	Wins   int
	Losses int
	Flat   int
}

// Total is the number of trades counted.
func (o Outcomes) Total() int { return o.Wins + o.Losses + o.Flat }

// CountOutcomes tallies wins (profit > 0) and losses (profit < 0).
func CountOutcomes(trades []Trade) Outcomes {
	var o Outcomes
	for _, t := range trades {
		switch t.Profit.Sign() {
		case 1:
			o.Wins++
		case -1:
			o.Losses++
		default:
			o.Flat++
		}
	}
	return o
}
