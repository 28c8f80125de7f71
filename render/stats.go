// Package render projects fetched data onto view slots and charts. Nothing
// here returns an error or panics on bad input: every missing or malformed
// value becomes a placeholder.
package render

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradedash/model"
	"github.com/rustyeddy/tradedash/view"
	"github.com/shopspring/decimal"
)

// Stats writes every stat card of s.
func Stats(sink view.Sink, s model.Snapshot) {
	sink.SetText(view.SlotBalance, Currency(s.Balance))
	sink.SetText(view.SlotEquity, Currency(s.Equity))

	sink.SetText(view.SlotFloatingPL, Currency(s.FloatingPL))
	sink.SetClass(view.SlotFloatingPL, StatClass(model.SignTone(s.FloatingPL)))

	sink.SetText(view.SlotDailyTrades, s.DailyTrades)
	sink.SetText(view.SlotWins, s.DailyWins)
	sink.SetText(view.SlotLosses, s.DailyLosses)
	sink.SetText(view.SlotWinRate, Percent(s.WinRate))

	sink.SetText(view.SlotDailyPL, Currency(s.DailyPL))
	sink.SetClass(view.SlotDailyPL, StatClass(model.SignTone(s.DailyPL)))

	sink.SetText(view.SlotConsecLosses, s.ConsecutiveLosses)
	sink.SetText(view.SlotOpenPositions, s.OpenPositions)

	Status(sink, s.Status)
	LastTrade(sink, s.LastTradeDirection, s.LastTradeProfit)
}

// Status writes the bot status with its tone.
func Status(sink view.Sink, status string) {
	if status == "" {
		status = model.StatusUnknown
	}
	sink.SetText(view.SlotStatus, status)
	sink.SetClass(view.SlotStatus, StatClass(model.StatusTone(status)))
}

// LastTrade writes "{direction} ({$profit})", or a neutral "NONE".
func LastTrade(sink view.Sink, direction string, profit decimal.Decimal) {
	if direction == "" || direction == model.DirectionNone {
		sink.SetText(view.SlotLastTrade, model.DirectionNone)
		sink.SetClass(view.SlotLastTrade, ClassStat)
		return
	}
	sink.SetText(view.SlotLastTrade, fmt.Sprintf("%s (%s)", direction, Currency(profit)))
	sink.SetClass(view.SlotLastTrade, StatClass(model.SignTone(profit)))
}

// Connection writes the connection indicator.
func Connection(sink view.Sink, connected bool) {
	if connected {
		sink.SetClass(view.SlotStatusDot, "status-dot")
		sink.SetText(view.SlotConnectionStatus, "Connected")
		return
	}
	sink.SetClass(view.SlotStatusDot, "status-dot disconnected")
	sink.SetText(view.SlotConnectionStatus, "Disconnected")
}

// LastUpdate writes the time of the last successful stats fetch.
func LastUpdate(sink view.Sink, t time.Time) {
	sink.SetText(view.SlotLastUpdate, Clock(t))
}

// Title writes the dashboard title.
func Title(sink view.Sink, title string) {
	sink.SetText(view.SlotTitle, title)
}
