package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rustyeddy/tradedash/feed"
	"github.com/rustyeddy/tradedash/model"
	"github.com/rustyeddy/tradedash/pkg/id"
	"github.com/rustyeddy/tradedash/render"
	"github.com/rustyeddy/tradedash/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	fn        func()
	cancelled bool
}

// fakeScheduler runs Go synchronously (or on a tracked goroutine when async
// is set) and only fires timers when told to.
type fakeScheduler struct {
	async bool
	wg    sync.WaitGroup

	mu        sync.Mutex
	immediate int
	timers    []*fakeTimer
}

func (s *fakeScheduler) Go(fn func()) {
	s.mu.Lock()
	s.immediate++
	s.mu.Unlock()
	if s.async {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			fn()
		}()
		return
	}
	fn()
}

func (s *fakeScheduler) Every(_ time.Duration, fn func()) func() {
	t := &fakeTimer{fn: fn}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) immediates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.immediate
}

// fire runs every armed timer once.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	var fns []func()
	for _, t := range s.timers {
		if !t.cancelled {
			fns = append(fns, t.fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type fakeSource struct {
	mu         sync.Mutex
	stats      model.Snapshot
	statsErr   error
	trades     []model.Trade
	tradesErr  error
	reports    []model.DailyReport
	reportsErr error
	gate       chan struct{}
	calls      int
}

func (f *fakeSource) LiveStats(ctx context.Context) (model.Snapshot, error) {
	f.mu.Lock()
	gate := f.gate
	f.calls++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.statsErr
}

func (f *fakeSource) TradeHistory(ctx context.Context, limit int) ([]model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, f.tradesErr
}

func (f *fakeSource) DailyReports(ctx context.Context, days int) ([]model.DailyReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports, f.reportsErr
}

func (f *fakeSource) set(fn func(f *fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type fakeMetrics struct {
	ticks     atomic.Int64
	connected atomic.Bool
}

func (m *fakeMetrics) Tick()             { m.ticks.Add(1) }
func (m *fakeMetrics) Connected(ok bool) { m.connected.Store(ok) }

func trades(ps ...int64) []model.Trade {
	out := make([]model.Trade, len(ps))
	for i, p := range ps {
		out[i] = model.Trade{Type: "BUY", Profit: decimal.NewFromInt(p)}
	}
	return out
}

func newController(src Source, sched Scheduler) (*Controller, *view.Memory) {
	mem := view.NewMemory()
	c := New(src, mem, mem, Options{
		Title:     "Gold Scalper",
		Location:  time.UTC,
		Scheduler: sched,
		Palette:   render.Palette{Success: "#00C853", Danger: "#D50000"},
	})
	return c, mem
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestStartRendersImmediately(t *testing.T) {
	src := &fakeSource{
		stats:  model.NewSnapshot(model.Record{"Balance": "1000.5", "Floating P/L": "-25", "Status": "monitoring"}),
		trades: trades(5, -2),
	}
	sched := &fakeScheduler{}
	c, mem := newController(src, sched)

	assert.Equal(t, Idle, c.State())
	c.Start(context.Background())
	defer c.Close()

	assert.Equal(t, Running, c.State())
	assert.Equal(t, 1, sched.immediates())
	assert.Equal(t, 1, sched.active())

	assert.Equal(t, "Gold Scalper", mem.Text(view.SlotTitle))
	assert.Equal(t, "$1000.50", mem.Text(view.SlotBalance))
	assert.Equal(t, "$-25.00", mem.Text(view.SlotFloatingPL))
	assert.Equal(t, "stat-value negative", mem.Class(view.SlotFloatingPL))
	assert.Equal(t, "MONITORING", mem.Text(view.SlotStatus))
	assert.Equal(t, "Connected", mem.Text(view.SlotConnectionStatus))
	assert.True(t, c.Connected())

	tbl, ok := mem.Table(view.SlotTradesTable)
	require.True(t, ok)
	assert.Len(t, tbl.Rows, 2)

	reports, ok := mem.Table(view.SlotReportsTable)
	require.True(t, ok)
	assert.True(t, reports.IsPlaceholder())

	assert.Equal(t, 1, mem.LiveCharts(view.ChartTrades))
	assert.Equal(t, 1, mem.LiveCharts(view.ChartOutcomes))
}

func TestRefreshWithoutStart(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 5, 0, time.UTC)
	mem := view.NewMemory()
	c := New(&fakeSource{}, mem, mem, Options{
		Title:    "Gold Scalper",
		Location: time.UTC,
		Now:      func() time.Time { return at },
	})
	assert.Empty(t, c.LastTick())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "Gold Scalper", mem.Text(view.SlotTitle))

	tick := c.LastTick()
	require.NotEmpty(t, tick)
	started, err := id.Time(tick)
	require.NoError(t, err)
	assert.True(t, at.Equal(started))

	require.NoError(t, c.Refresh(context.Background()))
	assert.Greater(t, c.LastTick(), tick)
}

func TestTimerTicksRefresh(t *testing.T) {
	src := &fakeSource{}
	sched := &fakeScheduler{}
	c, _ := newController(src, sched)
	c.Start(context.Background())
	defer c.Close()

	sched.fire()
	sched.fire()
	assert.Equal(t, 3, src.calls)
}

func TestStartTwiceIsNoop(t *testing.T) {
	sched := &fakeScheduler{}
	c, _ := newController(&fakeSource{}, sched)
	c.Start(context.Background())
	c.Start(context.Background())
	defer c.Close()

	assert.Equal(t, 1, sched.immediates())
	assert.Equal(t, 1, sched.active())
}

func TestHideShowNoDuplicateTimers(t *testing.T) {
	src := &fakeSource{}
	sched := &fakeScheduler{}
	c, _ := newController(src, sched)
	c.Start(context.Background())
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Hide()
		assert.Equal(t, Paused, c.State())
		assert.Equal(t, 0, sched.active())

		c.Show()
		assert.Equal(t, Running, c.State())
		assert.Equal(t, 1, sched.active())
	}
	assert.Equal(t, 11, sched.immediates())

	// repeated shows re-arm rather than stack
	c.Show()
	c.Show()
	assert.Equal(t, 1, sched.active())

	src.calls = 0
	sched.fire()
	assert.Equal(t, 1, src.calls)
}

func TestHideTwiceAndShowWhenIdle(t *testing.T) {
	sched := &fakeScheduler{}
	c, _ := newController(&fakeSource{}, sched)

	c.Show()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, sched.immediates())

	c.Start(context.Background())
	c.Hide()
	c.Hide()
	assert.Equal(t, Paused, c.State())
	assert.Equal(t, 0, sched.active())

	c.Close()
	assert.Equal(t, Idle, c.State())
	c.Show()
	assert.Equal(t, Idle, c.State())
}

func TestInFlightRendersWhilePaused(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{
		stats: model.NewSnapshot(model.Record{"Balance": "42"}),
		gate:  gate,
	}
	sched := &fakeScheduler{async: true}
	c, mem := newController(src, sched)

	c.Start(context.Background())
	c.Hide()
	close(gate)
	sched.wg.Wait()

	assert.Equal(t, Paused, c.State())
	assert.Equal(t, "$42.00", mem.Text(view.SlotBalance))
	c.Close()
}

func TestStatsFailureKeepsPreviousValues(t *testing.T) {
	src := &fakeSource{stats: model.NewSnapshot(model.Record{"Balance": "1000.5"})}
	m := &fakeMetrics{}
	mem := view.NewMemory()
	c := New(src, mem, mem, Options{Scheduler: &fakeScheduler{}, Metrics: m, Location: time.UTC})

	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, m.connected.Load())
	updated := mem.Text(view.SlotLastUpdate)

	src.set(func(f *fakeSource) { f.statsErr = &feed.NetworkError{Status: 500, Body: "boom"} })
	err := c.Refresh(context.Background())
	require.Error(t, err)

	var netErr *feed.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Equal(t, "$1000.50", mem.Text(view.SlotBalance))
	assert.Equal(t, updated, mem.Text(view.SlotLastUpdate))
	assert.Equal(t, "Disconnected", mem.Text(view.SlotConnectionStatus))
	assert.Equal(t, "status-dot disconnected", mem.Class(view.SlotStatusDot))
	assert.False(t, c.Connected())
	assert.False(t, m.connected.Load())
	assert.Equal(t, int64(2), m.ticks.Load())

	s, ok := c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "1000.5", s.Balance.String())
}

func TestHTTP500KeepsPreviousStats(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "internal error")
			return
		}
		switch r.URL.Query().Get("action") {
		case feed.ActionLiveStats:
			fmt.Fprint(w, `{"status":"success","data":{"Balance":"1000.5","Floating P/L":"-25"}}`)
		case feed.ActionTradeHistory:
			fmt.Fprint(w, `{"status":"success","data":[{"Type":"BUY","Profit":"3"}]}`)
		default:
			fmt.Fprint(w, `{"status":"success","data":[]}`)
		}
	}))
	defer srv.Close()

	mem := view.NewMemory()
	c := New(feed.NewClient(srv.URL), mem, mem, Options{Scheduler: &fakeScheduler{}, Location: time.UTC})

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "Connected", mem.Text(view.SlotConnectionStatus))

	fail.Store(true)
	require.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, "$1000.50", mem.Text(view.SlotBalance))
	assert.Equal(t, "$-25.00", mem.Text(view.SlotFloatingPL))
	assert.Equal(t, "Disconnected", mem.Text(view.SlotConnectionStatus))
	assert.Equal(t, "status-dot disconnected", mem.Class(view.SlotStatusDot))

	// trades fell back to the placeholder; the chart kept its data
	tbl, _ := mem.Table(view.SlotTradesTable)
	assert.True(t, tbl.IsPlaceholder())
	charts := mem.Charts(view.ChartTrades)
	require.Len(t, charts, 1)
	assert.Equal(t, 1, charts[0].Updates())
}

func TestOneFailureDoesNotBlankOthers(t *testing.T) {
	src := &fakeSource{
		statsErr: errors.New("down"),
		trades:   trades(1, 2, 3),
		reports:  []model.DailyReport{{Date: "2024-01-15", TotalTrades: "3"}},
	}
	c, mem := newController(src, &fakeScheduler{})

	require.Error(t, c.Refresh(context.Background()))

	tbl, _ := mem.Table(view.SlotTradesTable)
	assert.Len(t, tbl.Rows, 3)
	reports, _ := mem.Table(view.SlotReportsTable)
	assert.Len(t, reports.Rows, 1)
	assert.False(t, reports.IsPlaceholder())
	assert.Equal(t, "Disconnected", mem.Text(view.SlotConnectionStatus))
}

func TestTradesFailureLeavesCharts(t *testing.T) {
	src := &fakeSource{trades: trades(4, -1)}
	c, mem := newController(src, &fakeScheduler{})

	require.NoError(t, c.Refresh(context.Background()))
	src.set(func(f *fakeSource) { f.tradesErr = &feed.DecodeError{Err: errors.New("bad")} })
	require.Error(t, c.Refresh(context.Background()))

	tbl, _ := mem.Table(view.SlotTradesTable)
	require.True(t, tbl.IsPlaceholder())
	assert.Equal(t, render.NoTrades, tbl.Rows[0][0].Text)

	charts := mem.Charts(view.ChartTrades)
	require.Len(t, charts, 1)
	assert.Equal(t, 1, charts[0].Updates())
	st, ok := charts[0].State()
	require.True(t, ok)
	assert.Equal(t, []float64{-1, 4}, st.Datasets[0].Data)
}

func TestEmptyTradesMakeNoCharts(t *testing.T) {
	c, mem := newController(&fakeSource{}, &fakeScheduler{})
	require.NoError(t, c.Refresh(context.Background()))

	tbl, _ := mem.Table(view.SlotTradesTable)
	assert.True(t, tbl.IsPlaceholder())
	assert.Empty(t, mem.Charts(view.ChartTrades))
	assert.Empty(t, mem.Charts(view.ChartOutcomes))
}

func TestChartsUpdatedInPlace(t *testing.T) {
	src := &fakeSource{trades: trades(1, 2)}
	sched := &fakeScheduler{}
	c, mem := newController(src, sched)
	c.Start(context.Background())
	for i := 0; i < 5; i++ {
		sched.fire()
	}

	require.Len(t, mem.Charts(view.ChartTrades), 1)
	assert.Equal(t, 6, mem.Charts(view.ChartTrades)[0].Updates())

	c.Close()
	assert.Equal(t, 0, mem.LiveCharts(view.ChartTrades))
	assert.Equal(t, 0, mem.LiveCharts(view.ChartOutcomes))
}

func TestCloseIgnoresLateResults(t *testing.T) {
	src := &fakeSource{stats: model.NewSnapshot(model.Record{"Balance": "1"})}
	c, mem := newController(src, &fakeScheduler{})
	c.Close()

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "", mem.Text(view.SlotBalance))
}

func TestReportsNotProvided(t *testing.T) {
	src := &fakeSource{reportsErr: feed.ErrNotProvided}
	c, mem := newController(src, &fakeScheduler{})

	require.NoError(t, c.Refresh(context.Background()))
	reports, _ := mem.Table(view.SlotReportsTable)
	assert.True(t, reports.IsPlaceholder())
}

func TestBundleSourceMakesOneRequest(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Empty(t, r.URL.Query().Get("action"))
		fmt.Fprint(w, `{"balance":"250","status":"in_position","trades":[{"type":"sell","profit":"-2"},{"type":"buy","profit":"5"},{"type":"buy","profit":"1"}]}`)
	}))
	defer srv.Close()

	mem := view.NewMemory()
	src := feed.NewFlat(feed.NewClient(srv.URL), model.NewestFirst)
	c := New(src, mem, mem, Options{Scheduler: &fakeScheduler{}, MaxTrades: 2, Location: time.UTC})

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, "$250.00", mem.Text(view.SlotBalance))
	assert.Equal(t, "IN_POSITION", mem.Text(view.SlotStatus))

	tbl, _ := mem.Table(view.SlotTradesTable)
	assert.Len(t, tbl.Rows, 2)
	reports, _ := mem.Table(view.SlotReportsTable)
	assert.True(t, reports.IsPlaceholder())
}

type flushSink struct {
	*view.Memory
	flushes atomic.Int64
}

func (f *flushSink) Flush() { f.flushes.Add(1) }

func TestRefreshFlushes(t *testing.T) {
	sink := &flushSink{Memory: view.NewMemory()}
	c := New(&fakeSource{}, sink, sink, Options{Scheduler: &fakeScheduler{}})

	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, int64(2), sink.flushes.Load())
}

func TestTicker(t *testing.T) {
	var n atomic.Int64
	cancel := Ticker{}.Every(5*time.Millisecond, func() { n.Add(1) })
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	cancel()

	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), stopped+1)

	done := make(chan struct{})
	Ticker{}.Go(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go did not run")
	}
}
