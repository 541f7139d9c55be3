// Package config loads server and CLI configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/warp/scaleup-planner/report"
)

// Configuration backends for saved plans.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the planner.
// Environment variables always override YAML values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Report   ReportConfig   `yaml:"report"`
	Log      LogConfig      `yaml:"log"`

	// DefaultOrgKey is used when a request carries no X-Org-Key.
	DefaultOrgKey string `yaml:"default_org_key" env:"PLANNER_DEFAULT_ORG" env-default:"default"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	BindAddr string `yaml:"bind_addr" env:"PLANNER_BIND_ADDR" env-default:""`
	Port     int    `yaml:"port" env:"PLANNER_PORT" env-default:"8080"`
	// Comma-separated list of allowed CORS origins.
	CORSOriginsStr string   `yaml:"cors_origins" env:"PLANNER_CORS_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173,http://localhost:8080"`
	CORSOrigins    []string `yaml:"-"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// DatabaseConfig selects the stores.
type DatabaseConfig struct {
	// Path of the SQLite database; ":memory:" keeps everything in memory.
	Path string `yaml:"path" env:"PLANNER_DB" env-default:"./data/planner.db"`
	// ConfigurationsBackend is where saved plans live: sqlite or postgres.
	ConfigurationsBackend string `yaml:"configurations_backend" env:"PLANNER_CONFIG_BACKEND" env-default:"sqlite"`
	// PostgresURL is a secret and only read from the environment.
	PostgresURL string `yaml:"-" env:"PLANNER_POSTGRES_URL"`
}

// AuthConfig gates the API behind bearer tokens.
type AuthConfig struct {
	Enabled bool `yaml:"enabled" env:"PLANNER_AUTH_ENABLED" env-default:"false"`
	// Tokens is a secret comma-separated list, only read from the environment.
	TokensStr string   `yaml:"-" env:"PLANNER_AUTH_TOKENS"`
	Tokens    []string `yaml:"-"`
	LoginURL  string   `yaml:"login_url" env:"PLANNER_LOGIN_URL" env-default:"/login"`
}

// AutosaveConfig tunes the debounced configuration saver.
type AutosaveConfig struct {
	Delay      time.Duration `yaml:"delay" env:"PLANNER_AUTOSAVE_DELAY" env-default:"1s"`
	MaxRetries int           `yaml:"max_retries" env:"PLANNER_AUTOSAVE_RETRIES" env-default:"3"`
}

// ReportConfig controls printable page rendering.
type ReportConfig struct {
	PageWidth  int     `yaml:"page_width" env:"PLANNER_REPORT_PAGE_WIDTH" env-default:"595"`
	PageHeight int     `yaml:"page_height" env:"PLANNER_REPORT_PAGE_HEIGHT" env-default:"842"`
	Margin     float64 `yaml:"margin" env:"PLANNER_REPORT_MARGIN" env-default:"48"`
	// FontPath is an optional TrueType font; empty uses the built-in face.
	FontPath string  `yaml:"font_path" env:"PLANNER_REPORT_FONT" env-default:""`
	FontSize float64 `yaml:"font_size" env:"PLANNER_REPORT_FONT_SIZE" env-default:"11"`
}

// Layout builds the page geometry, loading FontPath when set.
func (c ReportConfig) Layout() (report.Layout, error) {
	l := report.DefaultLayout()
	l.Width = float64(c.PageWidth)
	l.Height = float64(c.PageHeight)
	l.Margin = c.Margin
	if c.FontPath != "" {
		face, err := report.LoadFontFace(c.FontPath, c.FontSize)
		if err != nil {
			return report.Layout{}, fmt.Errorf("report font: %w", err)
		}
		l.Face = face
	}
	return l, nil
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"PLANNER_LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"PLANNER_LOG_DEV" env-default:"false"`
}

// Load reads path when it exists, then applies environment overrides.
// An empty path or a missing file means environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg.finish()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	c.Server.CORSOrigins = splitList(c.Server.CORSOriginsStr)
	c.Auth.Tokens = splitList(c.Auth.TokensStr)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Database.ConfigurationsBackend {
	case BackendSQLite:
	case BackendPostgres:
		if c.Database.PostgresURL == "" {
			return errors.New("configurations_backend postgres requires PLANNER_POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown configurations_backend %q", c.Database.ConfigurationsBackend)
	}
	if c.Auth.Enabled && len(c.Auth.Tokens) == 0 {
		return errors.New("auth enabled but PLANNER_AUTH_TOKENS is empty")
	}
	if c.Autosave.Delay < 0 {
		return errors.New("autosave delay must not be negative")
	}
	if c.Report.PageWidth <= 0 || c.Report.PageHeight <= 0 {
		return errors.New("report page size must be positive")
	}
	return nil
}

// splitList parses "a, b,,c" into [a b c].
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
