// Package controller drives the dashboard: it owns the refresh timer, fetches
// every dataset concurrently on each tick and renders each one as it arrives.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/feed"
	"github.com/rustyeddy/tradedash/model"
	"github.com/rustyeddy/tradedash/pkg/id"
	"github.com/rustyeddy/tradedash/render"
	"github.com/rustyeddy/tradedash/view"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 5 * time.Second

// State is the refresh state machine: Idle -> Running <-> Paused.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Source is what the controller reads from.
type Source interface {
	LiveStats(ctx context.Context) (model.Snapshot, error)
	TradeHistory(ctx context.Context, limit int) ([]model.Trade, error)
	DailyReports(ctx context.Context, days int) ([]model.DailyReport, error)
}

// BundleSource is a Source that returns stats and trades in one response.
// The controller then makes a single request per tick.
type BundleSource interface {
	Bundle(ctx context.Context) (model.Snapshot, []model.Trade, error)
}

// Metrics receives refresh outcomes.
type Metrics interface {
	Tick()
	Connected(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) Tick()          {}
func (nopMetrics) Connected(bool) {}

// Options configures a Controller. Zero values get defaults.
type Options struct {
	Interval    time.Duration
	MaxTrades   int
	MaxDays     int
	ChartPoints int
	Order       model.Order
	ChartKind   view.ChartKind
	Palette     render.Palette
	Title       string
	Location    *time.Location

	Scheduler Scheduler
	Metrics   Metrics
	Now       func() time.Time
}

// Controller refreshes one dashboard.
type Controller struct {
	src    Source
	sink   view.Sink
	charts view.ChartFactory
	opt    Options

	// smu guards the state machine. It is never held while rendering.
	smu    sync.Mutex
	state  State
	cancel func()
	stop   context.CancelFunc
	ctx    context.Context

	// mu serializes everything written to the sink.
	mu        sync.Mutex
	closed    bool
	chartSt   render.Charts
	snapshot  model.Snapshot
	hasStats  bool
	connected bool
	updated   time.Time
	lastTick  string
	titled    bool
}

// New creates an idle controller writing to sink. charts may be nil, in
// which case no charts are drawn.
func New(src Source, sink view.Sink, charts view.ChartFactory, opt Options) *Controller {
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	if opt.ChartPoints <= 0 {
		opt.ChartPoints = render.DefaultChartPoints
	}
	if opt.Order == "" {
		opt.Order = model.NewestFirst
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.Scheduler == nil {
		opt.Scheduler = Ticker{}
	}
	if opt.Metrics == nil {
		opt.Metrics = nopMetrics{}
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Controller{src: src, sink: sink, charts: charts, opt: opt}
}

// Start moves an idle controller to Running: it refreshes once now and arms
// the timer. ctx bounds every scheduled refresh.
func (c *Controller) Start(ctx context.Context) {
	c.smu.Lock()
	defer c.smu.Unlock()
	if c.state != Idle {
		return
	}

	c.ctx, c.stop = context.WithCancel(ctx)

	c.mu.Lock()
	c.closed = false
	c.renderTitle()
	c.mu.Unlock()

	log.Info().Dur("interval", c.opt.Interval).Msg("refresh started")
	c.arm()
}

// Hide pauses a running controller. Requests already in flight complete and
// still render.
func (c *Controller) Hide() {
	c.smu.Lock()
	defer c.smu.Unlock()
	if c.state != Running {
		return
	}
	c.disarm()
	c.state = Paused
	log.Debug().Msg("refresh paused")
}

// Show resumes a paused controller, or re-arms a running one, with an
// immediate refresh. An idle controller is left alone.
func (c *Controller) Show() {
	c.smu.Lock()
	defer c.smu.Unlock()
	if c.state == Idle {
		return
	}
	log.Debug().Str("from", c.state.String()).Msg("refresh resumed")
	c.arm()
}

// Close stops the timer, cancels in-flight requests and destroys the charts.
func (c *Controller) Close() {
	c.smu.Lock()
	c.disarm()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.state = Idle
	c.smu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.chartSt = c.chartSt.Destroy()
	c.mu.Unlock()
}

// arm cancels any timer, refreshes now and starts a fresh timer. smu held.
func (c *Controller) arm() {
	c.disarm()
	c.state = Running

	ctx := c.ctx
	run := func() { c.tick(ctx) }
	c.opt.Scheduler.Go(run)
	c.cancel = c.opt.Scheduler.Every(c.opt.Interval, run)
}

// disarm cancels the timer if one is armed. smu held.
func (c *Controller) disarm() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_ = c.Refresh(ctx)
}

// State reports the current state.
func (c *Controller) State() State {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.state
}

// Snapshot returns the last stats successfully fetched.
func (c *Controller) Snapshot() (model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.hasStats
}

// Connected reports whether the last stats fetch succeeded.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// LastTick is the id of the most recent refresh, or "" before the first.
func (c *Controller) LastTick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTick
}

// LastUpdate is when stats were last fetched successfully.
func (c *Controller) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}

// Refresh runs one tick: every dataset is fetched concurrently and rendered
// as soon as its own response arrives. It returns the first fetch error.
// Failures never clear what another dataset rendered.
func (c *Controller) Refresh(ctx context.Context) error {
	start := c.opt.Now()
	tick := id.NewAt(start)
	logger := log.With().Str("tick", tick).Logger()
	c.opt.Metrics.Tick()

	c.mu.Lock()
	c.lastTick = tick
	if !c.titled && !c.closed {
		c.renderTitle()
	}
	c.mu.Unlock()
	var g errgroup.Group

	if b, ok := c.src.(BundleSource); ok {
		g.Go(func() error {
			s, trades, err := b.Bundle(ctx)
			if err != nil {
				c.statsFailed(logger, err)
				c.tradesFailed(logger, err)
			} else {
				c.applyStats(s)
				c.applyTrades(model.Limit(trades, c.opt.MaxTrades, c.opt.Order))
			}
			c.applyReports(nil)
			return wrap("fetch bundle", err)
		})
	} else {
		g.Go(func() error {
			s, err := c.src.LiveStats(ctx)
			if err != nil {
				c.statsFailed(logger, err)
				return wrap("fetch live stats", err)
			}
			c.applyStats(s)
			return nil
		})
		g.Go(func() error {
			trades, err := c.src.TradeHistory(ctx, c.opt.MaxTrades)
			if err != nil {
				c.tradesFailed(logger, err)
				return wrap("fetch trade history", err)
			}
			c.applyTrades(trades)
			return nil
		})
		g.Go(func() error {
			reports, err := c.src.DailyReports(ctx, c.opt.MaxDays)
			if errors.Is(err, feed.ErrNotProvided) {
				c.applyReports(nil)
				return nil
			}
			if err != nil {
				logFailure(logger, "reports", err)
				c.applyReports(nil)
				return wrap("fetch daily reports", err)
			}
			c.applyReports(reports)
			return nil
		})
	}

	err := g.Wait()

	c.mu.Lock()
	if f, ok := c.sink.(view.Flusher); ok && !c.closed {
		f.Flush()
	}
	c.mu.Unlock()

	logger.Debug().Dur("took", c.opt.Now().Sub(start)).Bool("ok", err == nil).Msg("refresh done")
	return err
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

func logFailure(logger zerolog.Logger, dataset string, err error) {
	logger.Warn().Err(err).Str("dataset", dataset).Str("kind", feed.Kind(err)).Msg("fetch failed")
}

// renderTitle is called with mu held.
func (c *Controller) renderTitle() {
	render.Title(c.sink, c.opt.Title)
	c.titled = true
}

func (c *Controller) applyStats(s model.Snapshot) {
	if len(s.Missing) > 0 {
		log.Debug().Strs("missing", s.Missing).Msg("live stats incomplete")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.snapshot, c.hasStats = s, true
	c.connected = true
	c.updated = c.opt.Now()

	render.Stats(c.sink, s)
	render.Connection(c.sink, true)
	render.LastUpdate(c.sink, c.updated)
	c.opt.Metrics.Connected(true)
}

// statsFailed keeps the previous stat values and flips the indicator.
func (c *Controller) statsFailed(logger zerolog.Logger, err error) {
	logFailure(logger, "stats", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.connected = false
	render.Connection(c.sink, false)
	c.opt.Metrics.Connected(false)
}

func (c *Controller) applyTrades(trades []model.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	render.Trades(c.sink, trades, c.opt.Location)
	c.chartSt = render.RenderCharts(c.chartSt, c.charts, trades, render.ChartOptions{
		Palette: c.opt.Palette,
		Points:  c.opt.ChartPoints,
		Order:   c.opt.Order,
		Kind:    c.opt.ChartKind,
	})
}

// tradesFailed shows the empty table; charts keep their last data.
func (c *Controller) tradesFailed(logger zerolog.Logger, err error) {
	logFailure(logger, "trades", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	render.Trades(c.sink, nil, c.opt.Location)
}

func (c *Controller) applyReports(reports []model.DailyReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	render.Reports(c.sink, reports, c.opt.Location)
}
