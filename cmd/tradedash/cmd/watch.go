package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/controller"
	"github.com/rustyeddy/tradedash/view"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the dashboard in the terminal",
	Long: `Refresh on the configured interval and redraw the dashboard on stdout:
stat cards, an ASCII plot of recent trade P/L, and the trade and daily report
tables.

Examples:
  tradedash watch
  tradedash watch --once --config dash.yaml`,
	RunE: runWatch,
}

var (
	watchOnce    bool
	watchNoClear bool
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "refresh once and exit")
	watchCmd.Flags().BoolVar(&watchNoClear, "no-clear", false, "do not clear the screen between refreshes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	opts, err := controllerOptions(cfg)
	if err != nil {
		return err
	}

	console := view.NewConsole(cmd.OutOrStdout(), !watchNoClear && !watchOnce)
	ctl := controller.New(src, console, console, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchOnce {
		// fetch errors are already rendered as disconnected / placeholders
		if err := ctl.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("refresh incomplete")
		}
		return nil
	}

	ctl.Start(ctx)
	<-ctx.Done()
	ctl.Close()
	return nil
}
