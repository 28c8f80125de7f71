package render

import (
	"strconv"
	"time"

	"github.com/rustyeddy/tradedash/model"
	"github.com/rustyeddy/tradedash/view"
)

var (
	TradeColumns  = []string{"#", "Type", "Open Time", "Close Time", "Open Price", "Close Price", "Lots", "Profit", "Duration"}
	ReportColumns = []string{"Date", "Trades", "Wins", "Losses", "Win Rate", "Net P/L", "Best", "Worst"}
)

// Placeholder texts for empty tables.
const (
	NoTrades  = "No trades recorded yet"
	NoReports = "No daily reports available yet"
)

// TradeTable builds one row per trade, in the order given.
func TradeTable(trades []model.Trade, loc *time.Location) view.Table {
	if len(trades) == 0 {
		return view.Placeholder(TradeColumns, NoTrades)
	}

	t := view.Table{Columns: TradeColumns, Rows: make([]view.Row, 0, len(trades))}
	for i, tr := range trades {
		typ := tr.Type
		typeClass := ""
		if typ == "" {
			typ = Missing
		} else {
			typeClass = "type-" + typ
		}
		t.Rows = append(t.Rows, view.Row{
			{Text: strconv.Itoa(i + 1)},
			{Text: typ, Class: typeClass},
			{Text: DateTime(tr.OpenTime, loc)},
			{Text: DateTime(tr.CloseTime, loc)},
			{Text: Fixed(tr.OpenPrice, 5)},
			{Text: Fixed(tr.ClosePrice, 5)},
			{Text: Fixed(tr.Lots, 2)},
			{Text: SignedCurrency(tr.Profit), Class: ProfitClass(tr.Profit)},
			{Text: Duration(tr.Duration)},
		})
	}
	return t
}

// ReportTable builds one row per daily report, in the order given.
func ReportTable(reports []model.DailyReport, loc *time.Location) view.Table {
	if len(reports) == 0 {
		return view.Placeholder(ReportColumns, NoReports)
	}

	t := view.Table{Columns: ReportColumns, Rows: make([]view.Row, 0, len(reports))}
	for _, r := range reports {
		t.Rows = append(t.Rows, view.Row{
			{Text: Date(r.Date, loc)},
			{Text: r.TotalTrades},
			{Text: r.Wins, Class: ClassProfitPositive},
			{Text: r.Losses, Class: ClassProfitNegative},
			{Text: Percent(r.WinRate)},
			{Text: SignedCurrency(r.NetPL), Class: ProfitClass(r.NetPL)},
			{Text: Currency(r.BestTrade), Class: ClassProfitPositive},
			{Text: Currency(r.WorstTrade), Class: ClassProfitNegative},
		})
	}
	return t
}

// Trades writes the trade history table.
func Trades(sink view.Sink, trades []model.Trade, loc *time.Location) {
	sink.SetTable(view.SlotTradesTable, TradeTable(trades, loc))
}

// Reports writes the daily report table.
func Reports(sink view.Sink, reports []model.DailyReport, loc *time.Location) {
	sink.SetTable(view.SlotReportsTable, ReportTable(reports, loc))
}
