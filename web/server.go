// Package web serves the dashboard page and pushes view updates to it over a
// websocket.
package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/controller"
	"github.com/rustyeddy/tradedash/pkg/id"
	"github.com/rustyeddy/tradedash/view"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// Controller is what the server needs from the refresh controller.
type Controller interface {
	Visibility
	State() controller.State
	Connected() bool
	LastUpdate() time.Time
	LastTick() string
}

// Theme colors the page.
type Theme struct {
	Primary    string
	Success    string
	Danger     string
	Background string
	Text       string
}

// Options configures the page.
type Options struct {
	Title     string
	Theme     Theme
	ChartKind view.ChartKind
	LogAll    bool // log every request, not only failures
	OnViewers func(int)
}

// Server is the dashboard web view.
type Server struct {
	opt    Options
	mem    *view.Memory
	ctl    Controller
	hub    *Hub
	engine *gin.Engine
}

// New wires the routes.
func New(mem *view.Memory, ctl Controller, opt Options) *Server {
	if opt.Theme.Background == "" {
		opt.Theme.Background = "#0F172A"
	}
	if opt.Theme.Text == "" {
		opt.Theme.Text = "#FFFFFF"
	}
	if opt.ChartKind == "" {
		opt.ChartKind = view.Bar
	}

	s := &Server{
		opt: opt,
		mem: mem,
		ctl: ctl,
		hub: NewHub(mem, ctl, opt.OnViewers),
	}

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(opt.LogAll))
	r.GET("/", s.handleIndex)
	r.GET("/api/view", s.handleView)
	r.GET("/ws", s.hub.Serve)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealth)
	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run listens on addr until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type pageData struct {
	Title     string
	Theme     Theme
	ChartKind string
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := dashboardTmpl.Execute(c.Writer, pageData{
		Title:     s.opt.Title,
		Theme:     s.opt.Theme,
		ChartKind: string(s.opt.ChartKind),
	})
	if err != nil {
		log.Error().Err(err).Msg("render dashboard page")
	}
}

type viewResponse struct {
	State      string     `json:"state"`
	Connected  bool       `json:"connected"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Tick       string     `json:"tick,omitempty"`
	TickAt     *time.Time `json:"tick_at,omitempty"`
	Viewers    int        `json:"viewers"`
	View       view.State `json:"view"`
}

func (s *Server) handleView(c *gin.Context) {
	resp := viewResponse{
		State:     s.ctl.State().String(),
		Connected: s.ctl.Connected(),
		Viewers:   s.hub.Viewers(),
		View:      s.mem.Snapshot(),
	}
	if t := s.ctl.LastUpdate(); !t.IsZero() {
		resp.LastUpdate = &t
	}
	if tick := s.ctl.LastTick(); tick != "" {
		resp.Tick = tick
		if at, err := id.Time(tick); err == nil {
			resp.TickAt = &at
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"state":     s.ctl.State().String(),
		"connected": s.ctl.Connected(),
	})
}
