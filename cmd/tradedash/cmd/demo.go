package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/internal/demo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo-source",
	Short: "Serve a synthetic bot endpoint",
	Long: `Run a fake trading bot that closes a trade every interval and answers
the same requests the real bot's web app does. The default configuration
points at it, so the dashboard works out of the box.

Examples:
  tradedash demo-source
  tradedash demo-source --flat --path / --addr :9000`,
	RunE: runDemoSource,
}

var (
	demoAddr     string
	demoPath     string
	demoFlat     bool
	demoInterval time.Duration
	demoSeed     int64
	demoBalance  float64
	demoWarmup   int
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoAddr, "addr", ":8090", "listen address")
	demoCmd.Flags().StringVar(&demoPath, "path", "/exec", "endpoint path")
	demoCmd.Flags().BoolVar(&demoFlat, "flat", false, "also answer requests without an action with the flat object")
	demoCmd.Flags().DurationVar(&demoInterval, "interval", 3*time.Second, "time between synthetic trades")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", time.Now().UnixNano(), "random seed")
	demoCmd.Flags().Float64Var(&demoBalance, "balance", 10000, "starting balance")
	demoCmd.Flags().IntVar(&demoWarmup, "warmup", 25, "trades to close before serving")
}

func runDemoSource(cmd *cobra.Command, args []string) error {
	if demoInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	bot := demo.New(demoSeed, decimal.NewFromFloat(demoBalance))
	for i := 0; i < demoWarmup; i++ {
		bot.Step()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go bot.Run(ctx, demoInterval)

	srv := &http.Server{
		Addr:              demoAddr,
		Handler:           bot.Router(demoPath, demoFlat),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", demoAddr).Str("path", demoPath).Bool("flat", demoFlat).Msg("demo source listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", demoAddr, err)
	}
	return nil
}
