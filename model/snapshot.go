package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status values reported by the bot.
const (
	StatusMonitoring   = "MONITORING"
	StatusInPosition   = "IN_POSITION"
	StatusLockout      = "LOCKOUT"
	StatusLimitReached = "LIMIT_REACHED"
	StatusUnknown      = "UNKNOWN"
)

// DirectionNone is reported when no trade has closed yet.
const DirectionNone = "NONE"

// Snapshot is the most recent live-stats object. Missing values are already
// replaced by their fallbacks; Missing names the fields that were absent.
type Snapshot struct {
	Balance    decimal.Decimal
	Equity     decimal.Decimal
	FloatingPL decimal.Decimal
	DailyPL    decimal.Decimal
	WinRate    decimal.Decimal

	DailyTrades       string
	DailyWins         string
	DailyLosses       string
	ConsecutiveLosses string
	OpenPositions     string

	Status             string
	LastTradeDirection string
	LastTradeProfit    decimal.Decimal

	Missing []string
}

// NewSnapshot reads a live-stats record.
func NewSnapshot(r Record) Snapshot {
	s := Snapshot{
		Balance:    r.Number(Balance),
		Equity:     r.Number(Equity),
		FloatingPL: r.Number(FloatingPL),
		DailyPL:    r.Number(DailyPL),
		WinRate:    r.Number(WinRate),

		DailyTrades:       r.Count(DailyTrades),
		DailyWins:         r.Count(DailyWins),
		DailyLosses:       r.Count(DailyLosses),
		ConsecutiveLosses: r.Count(ConsecutiveLosses),
		OpenPositions:     r.Count(OpenPositions),

		Status:             strings.ToUpper(r.Text(Status, StatusUnknown)),
		LastTradeDirection: strings.ToUpper(r.Text(LastTradeDirection, DirectionNone)),
		LastTradeProfit:    r.Number(LastTradeProfit),
	}

	for _, f := range []Field{Balance, Equity, FloatingPL, DailyPL, WinRate, Status} {
		if !r.Has(f) {
			s.Missing = append(s.Missing, f.Name)
		}
	}
	return s
}

// Tone is the three-way visual state of a value.
type Tone int

const (
	Neutral Tone = iota
	Positive
	Negative
)

// SignTone is Positive for values >= 0.
func SignTone(d decimal.Decimal) Tone {
	if d.Sign() >= 0 {
		return Positive
	}
	return Negative
}

// StatusTone maps a bot status onto a tone.
func StatusTone(status string) Tone {
	switch status {
	case StatusMonitoring, StatusInPosition:
		return Positive
	case StatusLockout, StatusLimitReached:
		return Negative
	}
	return Neutral
}
