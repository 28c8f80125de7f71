package model

// Field names one value and every key the data source may use for it. The
// first key is the action/envelope schema's spelling; the others are the
// lower-cased spellings of the flat schema.
type Field struct {
	Name string
	Keys []string
}

func field(name string, keys ...string) Field {
	return Field{Name: name, Keys: keys}
}

// Live stats.
var (
	Balance            = field("balance", "Balance", "balance")
	Equity             = field("equity", "Equity", "equity")
	FloatingPL         = field("floatingPL", "Floating P/L", "floatingPL", "floatingPl", "floating_pl", "floating")
	DailyTrades        = field("dailyTrades", "Daily Trades", "dailyTrades", "daily_trades", "trades_today")
	DailyWins          = field("wins", "Daily Wins", "dailyWins", "daily_wins", "wins")
	DailyLosses        = field("losses", "Daily Losses", "dailyLosses", "daily_losses", "losses")
	WinRate            = field("winRate", "Win Rate", "winRate", "win_rate", "winrate")
	DailyPL            = field("dailyPL", "Daily P/L", "dailyPL", "dailyPl", "daily_pl")
	ConsecutiveLosses  = field("consecLosses", "Consecutive Losses", "consecutiveLosses", "consecLosses", "consecutive_losses")
	OpenPositions      = field("openPositions", "Open Positions", "openPositions", "open_positions", "positions")
	Status             = field("status", "Status", "status", "state")
	LastTradeDirection = field("lastTradeDirection", "Last Trade Direction", "lastTradeDirection", "last_trade_direction", "lastDirection")
	LastTradeProfit    = field("lastTradeProfit", "Last Trade Profit", "lastTradeProfit", "last_trade_profit", "lastProfit")
)

// Trade history rows.
var (
	TradeType  = field("type", "Type", "type", "direction", "side")
	OpenTime   = field("openTime", "Open Time", "openTime", "open_time")
	CloseTime  = field("closeTime", "Close Time", "closeTime", "close_time", "time")
	OpenPrice  = field("openPrice", "Open Price", "openPrice", "open_price", "entry")
	ClosePrice = field("closePrice", "Close Price", "closePrice", "close_price", "exit")
	Lots       = field("lots", "Lots", "lots", "volume", "size")
	Profit     = field("profit", "Profit", "profit", "pl", "pnl")
	Duration   = field("duration", "Duration", "duration", "duration_sec", "durationSeconds")
)

// Daily report rows.
var (
	ReportDate  = field("date", "Date", "date", "day")
	TotalTrades = field("totalTrades", "Total Trades", "totalTrades", "total_trades", "trades")
	Wins        = field("wins", "Wins", "wins")
	Losses      = field("losses", "Losses", "losses")
	ReportWin   = field("winRate", "Win Rate", "winRate", "win_rate")
	NetPL       = field("netPL", "Net P/L", "netPL", "netPl", "net_pl")
	BestTrade   = field("bestTrade", "Best Trade", "bestTrade", "best_trade", "best")
	WorstTrade  = field("worstTrade", "Worst Trade", "worstTrade", "worst_trade", "worst")
)

// Trades lists the keys under which the flat schema embeds its trade list.
var Trades = field("trades", "trades", "history", "activity")
