package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/tradedash/controller"
	"github.com/rustyeddy/tradedash/internal/metrics"
	"github.com/rustyeddy/tradedash/view"
	"github.com/rustyeddy/tradedash/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Long: `Start the refresh loop and serve the dashboard page.

Refreshing pauses while no browser tab showing the dashboard is visible and
resumes, with an immediate refresh, when one becomes visible.

Routes:
  /          dashboard page
  /api/view  current view as JSON
  /ws        live updates
  /metrics   Prometheus metrics
  /healthz   health check

Example:
  tradedash serve --config dash.yaml --addr :8080`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	opts, err := controllerOptions(cfg)
	if err != nil {
		return err
	}

	mem := view.NewMemory()
	ctl := controller.New(src, mem, mem, opts)
	srv := web.New(mem, ctl, web.Options{
		Title: cfg.Display.Title,
		Theme: web.Theme{
			Primary:    cfg.Colors.Primary,
			Success:    cfg.Colors.Success,
			Danger:     cfg.Colors.Danger,
			Background: cfg.Colors.Background,
			Text:       cfg.Colors.Text,
		},
		ChartKind: opts.ChartKind,
		LogAll:    zerolog.GlobalLevel() <= zerolog.DebugLevel,
		OnViewers: metrics.Get().SetViewers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One refresh so /api/view has data, then wait for a visible page.
	ctl.Start(ctx)
	ctl.Hide()
	defer ctl.Close()

	return srv.Run(ctx, cfg.Server.Addr)
}
