package model

import "github.com/shopspring/decimal"

// DailyReport is one day's aggregate.
type DailyReport struct {
	Date        string
	TotalTrades string
	Wins        string
	Losses      string
	WinRate     decimal.Decimal
	NetPL       decimal.Decimal
	BestTrade   decimal.Decimal
	WorstTrade  decimal.Decimal
}

func NewDailyReport(r Record) DailyReport {
	return DailyReport{
		Date:        r.String(ReportDate),
		TotalTrades: r.Count(TotalTrades),
		Wins:        r.Count(Wins),
		Losses:      r.Count(Losses),
		WinRate:     r.Number(ReportWin),
		NetPL:       r.Number(NetPL),
		BestTrade:   r.Number(BestTrade),
		WorstTrade:  r.Number(WorstTrade),
	}
}

func NewDailyReports(rs []Record) []DailyReport {
	out := make([]DailyReport, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewDailyReport(r))
	}
	return out
}
