package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rustyeddy/tradedash/model"
	"gopkg.in/yaml.v3"
)

// Source schemas.
const (
	SchemaEnvelope = "envelope" // ?action=... with {status, data, message}
	SchemaFlat     = "flat"     // one object, lower-cased keys, embedded trades
)

// Config is the dashboard configuration. It is read once at startup.
type Config struct {
	Source  SourceConfig  `json:"source" yaml:"source"`
	Refresh RefreshConfig `json:"refresh" yaml:"refresh"`
	Display DisplayConfig `json:"display" yaml:"display"`
	Colors  ColorsConfig  `json:"colors" yaml:"colors"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Debug   bool          `json:"debug" yaml:"debug"`
}

// SourceConfig locates the bot's data endpoint.
type SourceConfig struct {
	URL               string  `json:"url" yaml:"url"`
	Schema            string  `json:"schema" yaml:"schema"`
	HistoryOrder      string  `json:"history_order" yaml:"history_order"`
	Timeout           string  `json:"timeout" yaml:"timeout"` // e.g. "10s"
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
}

// ParseTimeout converts the timeout string. Empty means no timeout.
func (s SourceConfig) ParseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// Order returns the configured trade history order.
func (s SourceConfig) Order() model.Order {
	o, err := model.ParseOrder(s.HistoryOrder)
	if err != nil {
		return model.NewestFirst
	}
	return o
}

// RefreshConfig controls the refresh timer.
type RefreshConfig struct {
	IntervalMS int `json:"interval_ms" yaml:"interval_ms"`
}

// Interval is the refresh period.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// DisplayConfig controls what the dashboard shows.
type DisplayConfig struct {
	Title       string `json:"title" yaml:"title"`
	MaxTrades   int    `json:"max_trades" yaml:"max_trades"`
	MaxDays     int    `json:"max_days" yaml:"max_days"`
	ChartPoints int    `json:"chart_points" yaml:"chart_points"`
	ChartType   string `json:"chart_type,omitempty" yaml:"chart_type,omitempty"` // "bar" or "line"
	Timezone    string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Location loads the display timezone. Empty means the local zone.
func (d DisplayConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

// ColorsConfig is the dashboard theme.
type ColorsConfig struct {
	Primary    string `json:"primary" yaml:"primary"`
	Success    string `json:"success" yaml:"success"`
	Danger     string `json:"danger" yaml:"danger"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
}

// ServerConfig is where the web view listens.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoadFromFile loads configuration from a file (JSON or YAML). Keys the file
// leaves out keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	u, err := url.Parse(c.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.url must be an absolute http(s) URL: %q", c.Source.URL)
	}
	if c.Source.Schema != SchemaEnvelope && c.Source.Schema != SchemaFlat {
		return fmt.Errorf("source.schema must be 'envelope' or 'flat'")
	}
	if _, err := model.ParseOrder(c.Source.HistoryOrder); err != nil {
		return fmt.Errorf("source.history_order must be 'newest_first' or 'oldest_first'")
	}
	if d, err := c.Source.ParseTimeout(); err != nil || d < 0 {
		return fmt.Errorf("source.timeout must be a non-negative duration: %q", c.Source.Timeout)
	}
	if c.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("source.requests_per_second must not be negative")
	}
	if c.Refresh.IntervalMS <= 0 {
		return fmt.Errorf("refresh.interval_ms must be positive")
	}
	if c.Display.MaxTrades < 0 || c.Display.MaxDays < 0 || c.Display.ChartPoints < 0 {
		return fmt.Errorf("display limits must not be negative")
	}
	if c.Display.ChartPoints > MaxChartPoints {
		return fmt.Errorf("display.chart_points must be at most %d", MaxChartPoints)
	}
	if ct := c.Display.ChartType; ct != "" && ct != "bar" && ct != "line" {
		return fmt.Errorf("display.chart_type must be 'bar' or 'line'")
	}
	if _, err := c.Display.Location(); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	for name, v := range map[string]string{
		"primary": c.Colors.Primary,
		"success": c.Colors.Success,
		"danger":  c.Colors.Danger,
	} {
		if !hexColor.MatchString(v) {
			return fmt.Errorf("colors.%s must be a hex color: %q", name, v)
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// MaxChartPoints caps the P/L chart window.
const MaxChartPoints = 20

// Default returns a configuration pointed at the local demo source.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:          "http://localhost:8090/exec",
			Schema:       SchemaEnvelope,
			HistoryOrder: string(model.NewestFirst),
			Timeout:      "10s",
		},
		Refresh: RefreshConfig{
			IntervalMS: 5000,
		},
		Display: DisplayConfig{
			Title:       "Gold HyperFlow EA Dashboard",
			MaxTrades:   50,
			MaxDays:     7,
			ChartPoints: MaxChartPoints,
			ChartType:   "bar",
		},
		Colors: ColorsConfig{
			Primary:    "#FFD700",
			Success:    "#00C853",
			Danger:     "#D50000",
			Background: "#0F172A",
			Text:       "#FFFFFF",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
