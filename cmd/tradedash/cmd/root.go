package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/config"
	"github.com/rustyeddy/tradedash/controller"
	"github.com/rustyeddy/tradedash/feed"
	"github.com/rustyeddy/tradedash/internal/metrics"
	"github.com/rustyeddy/tradedash/render"
	"github.com/rustyeddy/tradedash/view"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradedash",
	Short: "Live dashboard for an automated gold trading bot",
	Long: `Tradedash polls the web app a trading bot publishes its state to and
shows live stats, trade history, daily reports and charts.

It provides:
  - A web dashboard pushed over a websocket (serve)
  - A terminal dashboard (watch)
  - One-off reads of the bot endpoint (fetch)
  - A synthetic bot endpoint for trying it out (demo-source)`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var (
	cfgFile string
	debug   bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON; defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	setLevel(debug)
	return nil
}

func setLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// loadConfig reads --config, or the defaults when it is not set.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Debug {
		setLevel(true)
	}
	log.Debug().Str("url", cfg.Source.URL).Str("schema", cfg.Source.Schema).Msg("config loaded")
	return cfg, nil
}

// newSource builds the feed for the configured schema.
func newSource(cfg *config.Config) (controller.Source, error) {
	timeout, err := cfg.Source.ParseTimeout()
	if err != nil {
		return nil, fmt.Errorf("parse source timeout: %w", err)
	}

	client := feed.NewClient(cfg.Source.URL,
		feed.WithTimeout(timeout),
		feed.WithRateLimit(cfg.Source.RequestsPerSecond),
		feed.WithObserver(metrics.Get().ObserveFetch),
	)
	log.Debug().Str("url", client.BaseURL()).Str("schema", cfg.Source.Schema).Msg("data source")
	if cfg.Source.Schema == config.SchemaFlat {
		return feed.NewFlat(client, cfg.Source.Order()), nil
	}
	return client, nil
}

func controllerOptions(cfg *config.Config) (controller.Options, error) {
	loc, err := cfg.Display.Location()
	if err != nil {
		return controller.Options{}, fmt.Errorf("load timezone: %w", err)
	}
	return controller.Options{
		Interval:    cfg.Refresh.Interval(),
		MaxTrades:   cfg.Display.MaxTrades,
		MaxDays:     cfg.Display.MaxDays,
		ChartPoints: cfg.Display.ChartPoints,
		Order:       cfg.Source.Order(),
		ChartKind:   view.ChartKind(cfg.Display.ChartType),
		Palette: render.Palette{
			Primary: cfg.Colors.Primary,
			Success: cfg.Colors.Success,
			Danger:  cfg.Colors.Danger,
		},
		Title:    cfg.Display.Title,
		Location: loc,
		Metrics:  metrics.Get(),
	}, nil
}
