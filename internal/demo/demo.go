// Package demo serves a synthetic bot endpoint so the dashboard can run
// without a live trading bot. It speaks both the envelope and the flat schema.
package demo

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	defaultLimit = 50
	defaultDays  = 7
	maxHistory   = 500
	lockoutAfter = 3 // consecutive losses
)

type trade struct {
	Type       string
	Open       time.Time
	Close      time.Time
	OpenPrice  decimal.Decimal
	ClosePrice decimal.Decimal
	Lots       decimal.Decimal
	Profit     decimal.Decimal
}

func (t trade) duration() int64 { return int64(t.Close.Sub(t.Open) / time.Second) }

// Bot is a fake gold scalper. Each Step closes one trade.
type Bot struct {
	mu       sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
	balance  decimal.Decimal
	price    decimal.Decimal
	inTrade  bool
	floating decimal.Decimal
	trades   []trade // newest first
}

// New creates a bot with a fixed seed so runs are repeatable.
func New(seed int64, balance decimal.Decimal) *Bot {
	return &Bot{
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		balance: balance,
		price:   decimal.NewFromInt(2030),
	}
}

// Step closes one synthetic trade and moves the price.
func (b *Bot) Step() {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir := "BUY"
	sign := decimal.NewFromInt(1)
	if b.rng.Intn(2) == 0 {
		dir = "SELL"
		sign = sign.Neg()
	}

	move := decimal.NewFromFloat(b.rng.NormFloat64() * 1.5).Round(2)
	lots := decimal.NewFromInt(int64(1 + b.rng.Intn(10))).Div(decimal.NewFromInt(100))
	closeAt := b.now()
	openAt := closeAt.Add(-time.Duration(30+b.rng.Intn(570)) * time.Second)

	t := trade{
		Type:       dir,
		Open:       openAt,
		Close:      closeAt,
		OpenPrice:  b.price,
		ClosePrice: b.price.Add(move),
		Lots:       lots,
		// 100 oz per lot
		Profit: move.Mul(lots).Mul(decimal.NewFromInt(100)).Mul(sign).Round(2),
	}

	b.price = t.ClosePrice
	b.balance = b.balance.Add(t.Profit)
	b.inTrade = b.rng.Intn(3) == 0
	b.floating = decimal.Zero
	if b.inTrade {
		b.floating = decimal.NewFromFloat(b.rng.NormFloat64() * 10).Round(2)
	}

	b.trades = append([]trade{t}, b.trades...)
	if len(b.trades) > maxHistory {
		b.trades = b.trades[:maxHistory]
	}
}

// Run steps the bot every interval until ctx is done.
func (b *Bot) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Step()
		}
	}
}

// stats summarises today's trades. b.mu held.
func (b *Bot) stats() map[string]any {
	today := b.now().Format("2006-01-02")

	var (
		count, wins, losses, consec int
		dailyPL                     = decimal.Zero
		consecDone                  bool
	)
	for _, t := range b.trades {
		if !consecDone {
			if t.Profit.Sign() < 0 {
				consec++
			} else {
				consecDone = true
			}
		}
		if t.Close.Format("2006-01-02") != today {
			continue
		}
		count++
		dailyPL = dailyPL.Add(t.Profit)
		switch t.Profit.Sign() {
		case 1:
			wins++
		case -1:
			losses++
		}
	}

	winRate := 0.0
	if count > 0 {
		winRate = float64(wins) / float64(count) * 100
	}

	status := "MONITORING"
	positions := 0
	switch {
	case consec >= lockoutAfter:
		status = "LOCKOUT"
	case b.inTrade:
		status = "IN_POSITION"
		positions = 1
	}

	lastDir, lastProfit := "NONE", decimal.Zero
	if len(b.trades) > 0 {
		lastDir, lastProfit = b.trades[0].Type, b.trades[0].Profit
	}

	return map[string]any{
		"balance":            b.balance.InexactFloat64(),
		"equity":             b.balance.Add(b.floating).InexactFloat64(),
		"floatingPL":         b.floating.InexactFloat64(),
		"dailyTrades":        count,
		"dailyWins":          wins,
		"dailyLosses":        losses,
		"winRate":            winRate,
		"dailyPL":            dailyPL.InexactFloat64(),
		"consecutiveLosses":  consec,
		"openPositions":      positions,
		"status":             status,
		"lastTradeDirection": lastDir,
		"lastTradeProfit":    lastProfit.InexactFloat64(),
	}
}

// envelopeStats renames the stats keys to the spreadsheet headers.
func envelopeStats(s map[string]any) map[string]any {
	return map[string]any{
		"Balance":              s["balance"],
		"Equity":               s["equity"],
		"Floating P/L":         s["floatingPL"],
		"Daily Trades":         s["dailyTrades"],
		"Daily Wins":           s["dailyWins"],
		"Daily Losses":         s["dailyLosses"],
		"Win Rate":             s["winRate"],
		"Daily P/L":            s["dailyPL"],
		"Consecutive Losses":   s["consecutiveLosses"],
		"Open Positions":       s["openPositions"],
		"Status":               s["status"],
		"Last Trade Direction": s["lastTradeDirection"],
		"Last Trade Profit":    s["lastTradeProfit"],
	}
}

// history returns up to limit trades, newest first. b.mu held.
func (b *Bot) history(limit int, flat bool) []map[string]any {
	n := len(b.trades)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, 0, n)
	for _, t := range b.trades[:n] {
		if flat {
			out = append(out, map[string]any{
				"type":       t.Type,
				"openTime":   t.Open.Format("2006.01.02 15:04:05"),
				"closeTime":  t.Close.Format("2006.01.02 15:04:05"),
				"openPrice":  t.OpenPrice.InexactFloat64(),
				"closePrice": t.ClosePrice.InexactFloat64(),
				"lots":       t.Lots.InexactFloat64(),
				"profit":     t.Profit.InexactFloat64(),
				"duration":   t.duration(),
			})
			continue
		}
		out = append(out, map[string]any{
			"Type":        t.Type,
			"Open Time":   t.Open.Format(time.RFC3339),
			"Close Time":  t.Close.Format(time.RFC3339),
			"Open Price":  t.OpenPrice.InexactFloat64(),
			"Close Price": t.ClosePrice.InexactFloat64(),
			"Lots":        t.Lots.InexactFloat64(),
			"Profit":      t.Profit.InexactFloat64(),
			"Duration":    t.duration(),
		})
	}
	return out
}

// reports aggregates the last days calendar days, newest first. b.mu held.
func (b *Bot) reports(days int) []map[string]any {
	type agg struct {
		total, wins, losses int
		net, best, worst    decimal.Decimal
	}
	byDay := map[string]*agg{}
	var order []string

	cutoff := b.now().AddDate(0, 0, -days+1).Format("2006-01-02")
	for _, t := range b.trades {
		day := t.Close.Format("2006-01-02")
		if day < cutoff {
			continue
		}
		a, ok := byDay[day]
		if !ok {
			a = &agg{best: t.Profit, worst: t.Profit}
			byDay[day] = a
			order = append(order, day)
		}
		a.total++
		a.net = a.net.Add(t.Profit)
		switch t.Profit.Sign() {
		case 1:
			a.wins++
		case -1:
			a.losses++
		}
		a.best = decimal.Max(a.best, t.Profit)
		a.worst = decimal.Min(a.worst, t.Profit)
	}

	out := make([]map[string]any, 0, len(order))
	for _, day := range order {
		a := byDay[day]
		out = append(out, map[string]any{
			"Date":         day,
			"Total Trades": a.total,
			"Wins":         a.wins,
			"Losses":       a.losses,
			"Win Rate":     float64(a.wins) / float64(a.total) * 100,
			"Net P/L":      a.net.InexactFloat64(),
			"Best Trade":   a.best.InexactFloat64(),
			"Worst Trade":  a.worst.InexactFloat64(),
		})
	}
	return out
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func failure(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": msg})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Handler answers the bot's web app requests. With flat set, a request
// without an action gets the single flat object.
func (b *Bot) Handler(flat bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()

		action := c.Query("action")
		switch action {
		case "getLiveStats":
			success(c, envelopeStats(b.stats()))
		case "getTradeHistory":
			success(c, b.history(intQuery(c, "limit", defaultLimit), false))
		case "getDailyReports":
			success(c, b.reports(intQuery(c, "days", defaultDays)))
		case "":
			if !flat {
				failure(c, "Missing action parameter")
				return
			}
			body := b.stats()
			body["trades"] = b.history(intQuery(c, "limit", defaultLimit), true)
			c.JSON(http.StatusOK, body)
		default:
			failure(c, "Unknown action: "+action)
		}
	}
}

// Router mounts the handler at path.
func (b *Bot) Router(path string, flat bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(path, b.Handler(flat))
	log.Debug().Str("path", path).Bool("flat", flat).Msg("demo source routes ready")
	return r
}
