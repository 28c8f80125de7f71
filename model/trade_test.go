package model

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradesWithProfits(profits ...float64) []Trade {
	out := make([]Trade, len(profits))
	for i, p := range profits {
		out[i] = Trade{Type: "BUY", OpenTime: fmt.Sprintf("t%d", i), Profit: decimal.NewFromFloat(p)}
	}
	return out
}

func TestNewTrade(t *testing.T) {
	tr := NewTrade(Record{
		"Type":        "buy",
		"Open Time":   "2024-01-15T10:00:00Z",
		"Close Time":  "2024-01-15T10:02:05Z",
		"Open Price":  "2034.12345",
		"Close Price": 2035.5,
		"Lots":        "0.10",
		"Profit":      "13.75",
		"Duration":    "125",
	})

	assert.Equal(t, "BUY", tr.Type)
	assert.True(t, tr.OpenPrice.Valid)
	assert.Equal(t, "2034.12345", tr.OpenPrice.Decimal.String())
	assert.Equal(t, int64(125), tr.Duration)
	assert.Equal(t, "13.75", tr.Profit.String())

	empty := NewTrade(Record{})
	assert.False(t, empty.OpenPrice.Valid)
	assert.False(t, empty.Lots.Valid)
	assert.True(t, empty.Profit.IsZero())
	assert.Equal(t, int64(0), empty.Duration)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, NewestFirst, o)

	o, err = ParseOrder("OLDEST_FIRST")
	require.NoError(t, err)
	assert.Equal(t, OldestFirst, o)

	_, err = ParseOrder("sideways")
	assert.Error(t, err)
}

func TestRecentWindowNewestFirst(t *testing.T) {
	// index 0 is the most recent trade
	profits := make([]float64, 25)
	for i := range profits {
		profits[i] = float64(25 - i)
	}
	trades := tradesWithProfits(profits...)

	window := RecentWindow(trades, 20, NewestFirst)
	require.Len(t, window, 20)
	assert.Equal(t, "6", window[0].Profit.String())
	assert.Equal(t, "25", window[19].Profit.String())

	// input untouched
	assert.Equal(t, "25", trades[0].Profit.String())
}

func TestRecentWindowOldestFirst(t *testing.T) {
	profits := make([]float64, 25)
	for i := range profits {
		profits[i] = float64(i + 1)
	}
	trades := tradesWithProfits(profits...)

	window := RecentWindow(trades, 20, OldestFirst)
	require.Len(t, window, 20)
	assert.Equal(t, "6", window[0].Profit.String())
	assert.Equal(t, "25", window[19].Profit.String())
}

func TestRecentWindowShort(t *testing.T) {
	window := RecentWindow(tradesWithProfits(3, 2, 1), 20, NewestFirst)
	require.Len(t, window, 3)
	assert.Equal(t, "1", window[0].Profit.String())
	assert.Equal(t, "3", window[2].Profit.String())

	assert.Empty(t, RecentWindow(nil, 20, NewestFirst))
}

func TestCountOutcomes(t *testing.T) {
	trades := tradesWithProfits(10, -5, 0, 0.01, -0.01, 0)
	o := CountOutcomes(trades)

	assert.Equal(t, 2, o.Wins)
	assert.Equal(t, 2, o.Losses)
	assert.Equal(t, 2, o.Flat)
	assert.Equal(t, len(trades), o.Total())
}

func TestTones(t *testing.T) {
	assert.Equal(t, Positive, SignTone(decimal.Zero))
	assert.Equal(t, Positive, SignTone(decimal.NewFromInt(3)))
	assert.Equal(t, Negative, SignTone(decimal.NewFromFloat(-0.01)))

	assert.Equal(t, Positive, StatusTone(StatusMonitoring))
	assert.Equal(t, Positive, StatusTone(StatusInPosition))
	assert.Equal(t, Negative, StatusTone(StatusLockout))
	assert.Equal(t, Negative, StatusTone(StatusLimitReached))
	assert.Equal(t, Neutral, StatusTone(StatusUnknown))
	assert.Equal(t, Neutral, StatusTone("PAUSED"))
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(Record{"Balance": "1000.5", "Floating P/L": "-25"})

	assert.Equal(t, "1000.5", s.Balance.String())
	assert.Equal(t, "-25", s.FloatingPL.String())
	assert.Equal(t, StatusUnknown, s.Status)
	assert.Equal(t, DirectionNone, s.LastTradeDirection)
	assert.Equal(t, "0", s.DailyTrades)
	assert.Contains(t, s.Missing, "equity")
	assert.Contains(t, s.Missing, "status")
	assert.NotContains(t, s.Missing, "balance")
}
