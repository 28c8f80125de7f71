// Package view holds the outbound rendering contract: named slots written
// through a Sink, and charts behind the Chart interface. Implementations
// include an in-memory sink (also the web view's state) and a console sink.
package view

import (
	"fmt"
	"html"
	"strings"
)

// Slot names. They match the element ids of the dashboard page.
const (
	SlotTitle            = "dashboardTitle"
	SlotStatusDot        = "statusDot"
	SlotConnectionStatus = "connectionStatus"
	SlotLastUpdate       = "lastUpdate"

	SlotBalance       = "balance"
	SlotEquity        = "equity"
	SlotFloatingPL    = "floatingPL"
	SlotDailyTrades   = "dailyTrades"
	SlotWins          = "wins"
	SlotLosses        = "losses"
	SlotWinRate       = "winRate"
	SlotDailyPL       = "dailyPL"
	SlotConsecLosses  = "consecLosses"
	SlotOpenPositions = "openPositions"
	SlotStatus        = "eaStatus"
	SlotLastTrade     = "lastTrade"

	SlotTradesTable  = "tradesTableBody"
	SlotReportsTable = "dailyReportsTableBody"

	ChartTrades   = "tradesChart"
	ChartOutcomes = "pieChart"
)

// Sink is where the render layer writes. Implementations must be safe to
// call from the render layer only; they are not required to lock.
type Sink interface {
	SetText(slot, text string)
	SetClass(slot, class string)
	SetTable(slot string, t Table)
}

// Flusher is implemented by sinks that batch writes per refresh.
type Flusher interface {
	Flush()
}

// Cell is one table cell. Span > 1 stretches it over several columns.
type Cell struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
	Span  int    `json:"span,omitempty"`
}

// Row is one table row.
type Row []Cell

// Table is a full replacement for a table body.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NoDataClass marks the cell written by Placeholder.
const NoDataClass = "no-data"

// Placeholder returns a table holding a single row that spans every column.
func Placeholder(columns []string, text string) Table {
	return Table{
		Columns: columns,
		Rows:    []Row{{{Text: text, Class: NoDataClass, Span: len(columns)}}},
	}
}

// IsPlaceholder reports whether t is the single spanning row of Placeholder.
func (t Table) IsPlaceholder() bool {
	if len(t.Rows) != 1 || len(t.Rows[0]) != 1 {
		return false
	}
	c := t.Rows[0][0]
	return c.Class == NoDataClass && c.Span == len(t.Columns)
}

// HTML renders the rows as <tr> markup for a tbody. Text is escaped.
func (t Table) HTML() string {
	var b strings.Builder
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, c := range row {
			b.WriteString("<td")
			if c.Span > 1 {
				fmt.Fprintf(&b, ` colspan="%d"`, c.Span)
			}
			if c.Class != "" {
				fmt.Fprintf(&b, ` class="%s"`, html.EscapeString(c.Class))
			}
			b.WriteString(">")
			b.WriteString(html.EscapeString(c.Text))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	return b.String()
}
