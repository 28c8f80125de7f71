package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/tradedash/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dashboard configuration",
	Long: `Write, check and inspect dashboard configuration files. Files may be
YAML or JSON; anything a file leaves out keeps its default.

Examples:
  tradedash config init -o dash.yaml
  tradedash config validate -f dash.yaml
  tradedash config show --config dash.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write the defaults to a file. The default source is the local endpoint
started by "tradedash demo-source". An existing file is left alone unless
--force is given.`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration file",
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration the other commands would run with: the file
given by --config laid over the defaults.`,
	RunE: runConfigShow,
}

var (
	initOutput   string
	initForce    bool
	validateFile string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd, configShowCmd)

	configInitCmd.Flags().StringVarP(&initOutput, "output", "o", "tradedash.yaml", "file to write (.yaml, .yml or .json)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configValidateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "file to check (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("%s exists (use --force to overwrite)", initOutput)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", initOutput, err)
		}
	}
	if err := config.Default().SaveToFile(initOutput); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n  start with: tradedash serve --config %s\n",
		initOutput, initOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(validateFile)
	if err != nil {
		return fmt.Errorf("%s: %w", validateFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", validateFile)
	summarize(out, cfg)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// summarize prints the settings that change what the dashboard shows.
func summarize(w io.Writer, cfg *config.Config) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Setting", "Value"})
	tw.SetAutoWrapText(false)
	tw.AppendBulk([][]string{
		{"source", cfg.Source.URL},
		{"schema", cfg.Source.Schema},
		{"history order", string(cfg.Source.Order())},
		{"refresh", cfg.Refresh.Interval().String()},
		{"title", cfg.Display.Title},
		{"trades / days", strconv.Itoa(cfg.Display.MaxTrades) + " / " + strconv.Itoa(cfg.Display.MaxDays)},
		{"chart", cfg.Display.ChartType + ", " + strconv.Itoa(cfg.Display.ChartPoints) + " points"},
		{"listen", cfg.Server.Addr},
	})
	tw.Render()
}
