package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/tradedash/feed"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <stats|trades|reports>",
	Short: "Read one dataset from the bot endpoint",
	Long: `Fetch a single dataset and print it as JSON. Useful for checking the
endpoint and how its fields are read.

Examples:
  tradedash fetch stats
  tradedash fetch trades --limit 10
  tradedash fetch reports --days 30`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"stats", "trades", "reports"},
	RunE:      runFetch,
}

var (
	fetchLimit int
	fetchDays  int
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "trades to request (default display.max_trades)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "days to request (default display.max_days)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	if fetchLimit <= 0 {
		fetchLimit = cfg.Display.MaxTrades
	}
	if fetchDays <= 0 {
		fetchDays = cfg.Display.MaxDays
	}

	timeout, _ := cfg.Source.ParseTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var out any
	switch args[0] {
	case "stats":
		out, err = src.LiveStats(ctx)
	case "trades":
		out, err = src.TradeHistory(ctx, fetchLimit)
	case "reports":
		out, err = src.DailyReports(ctx, fetchDays)
	default:
		return fmt.Errorf("unknown dataset %q (want stats, trades or reports)", args[0])
	}
	if err != nil {
		return fmt.Errorf("fetch %s (%s): %w", args[0], feed.Kind(err), err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
