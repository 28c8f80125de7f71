package demo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradedash/feed"
	"github.com/rustyeddy/tradedash/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBot(t *testing.T, steps int) *Bot {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := New(42, decimal.NewFromInt(10000))
	at := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	b.now = func() time.Time { return at }
	for i := 0; i < steps; i++ {
		at = at.Add(10 * time.Minute)
		b.Step()
	}
	return b
}

func get(t *testing.T, r http.Handler, target string) map[string]any {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStepKeepsBalance(t *testing.T) {
	b := newBot(t, 25)
	require.Len(t, b.trades, 25)

	sum := decimal.Zero
	for _, tr := range b.trades {
		sum = sum.Add(tr.Profit)
		assert.True(t, tr.Close.After(tr.Open))
	}
	assert.True(t, decimal.NewFromInt(10000).Add(sum).Equal(b.balance))

	// newest first
	assert.True(t, b.trades[0].Close.After(b.trades[24].Close))
}

func TestEnvelopeActions(t *testing.T) {
	r := newBot(t, 30).Router("/exec", false)

	stats := get(t, r, "/exec?action=getLiveStats")
	assert.Equal(t, "success", stats["status"])
	data := stats["data"].(map[string]any)
	assert.Contains(t, data, "Balance")
	assert.Contains(t, data, "Floating P/L")
	assert.Equal(t, 30.0, data["Daily Trades"])

	hist := get(t, r, "/exec?action=getTradeHistory&limit=5")
	assert.Len(t, hist["data"], 5)

	reports := get(t, r, "/exec?action=getDailyReports&days=7")
	rows := reports["data"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-15", rows[0].(map[string]any)["Date"])
	assert.Equal(t, 30.0, rows[0].(map[string]any)["Total Trades"])
}

func TestEnvelopeErrors(t *testing.T) {
	r := newBot(t, 1).Router("/exec", false)

	body := get(t, r, "/exec?action=nope")
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Unknown action: nope", body["message"])

	body = get(t, r, "/exec")
	assert.Equal(t, "error", body["status"])
}

func TestFlatObject(t *testing.T) {
	r := newBot(t, 8).Router("/", true)

	body := get(t, r, "/?limit=3")
	assert.Contains(t, body, "balance")
	assert.Contains(t, body, "status")
	assert.Len(t, body["trades"], 3)
}

func TestReportsWindow(t *testing.T) {
	b := newBot(t, 0)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < 10; i++ {
		b.now = func() time.Time { return at }
		b.Step()
		at = at.AddDate(0, 0, 1)
	}
	last := time.Date(2024, 1, 10, 18, 0, 0, 0, time.Local)
	b.now = func() time.Time { return last }

	b.mu.Lock()
	rows := b.reports(3)
	b.mu.Unlock()

	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-10", rows[0]["Date"])
	assert.Equal(t, "2024-01-08", rows[2]["Date"])
}

func TestLockoutAfterLosses(t *testing.T) {
	b := newBot(t, 0)
	loss := trade{Type: "BUY", Open: b.now().Add(-time.Minute), Close: b.now(), Profit: decimal.NewFromInt(-5)}
	b.trades = []trade{loss, loss, loss}

	b.mu.Lock()
	s := b.stats()
	b.mu.Unlock()
	assert.Equal(t, "LOCKOUT", s["status"])
	assert.Equal(t, 3, s["consecutiveLosses"])
}

func TestDashboardReadsBothSchemas(t *testing.T) {
	b := newBot(t, 12)

	env := httptest.NewServer(b.Router("/exec", false))
	defer env.Close()
	flat := httptest.NewServer(b.Router("/", true))
	defer flat.Close()

	ctx := context.Background()
	c := feed.NewClient(env.URL + "/exec")

	s, err := c.LiveStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.Missing)
	assert.True(t, s.Balance.Equal(b.balance))

	trades, err := c.TradeHistory(ctx, 4)
	require.NoError(t, err)
	require.Len(t, trades, 4)
	assert.NotEmpty(t, trades[0].OpenTime)
	assert.True(t, trades[0].OpenPrice.Valid)

	reports, err := c.DailyReports(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	fs, ftrades, err := feed.NewFlat(feed.NewClient(flat.URL), model.NewestFirst).Bundle(ctx)
	require.NoError(t, err)
	assert.Empty(t, fs.Missing)
	assert.True(t, fs.Balance.Equal(s.Balance))
	assert.Len(t, ftrades, 12)
	assert.Equal(t, trades[0].Profit.String(), ftrades[0].Profit.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	b := newBot(t, 0)
	b.now = time.Now
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.trades) > 0
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}
