package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	LoaderSpinner = "spinner"
	LoaderBlob    = "blob"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	API       APIConfig       `yaml:"api"`
	Web       WebConfig       `yaml:"web"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Zero disables the client-side timeout; requests still end with their context.
	Timeout time.Duration `yaml:"timeout"`
}

type WebConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	SessionSecret  string        `yaml:"session_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	StreamSections bool          `yaml:"stream_sections"`
	LoaderStyle    string        `yaml:"loader_style"`
	PageSize       int           `yaml:"page_size"`
}

type DashboardConfig struct {
	DefaultView  string           `yaml:"default_view"`
	WelcomeToast bool             `yaml:"welcome_toast"`
	Expiry       ExpiryThresholds `yaml:"expiry"`
}

// ExpiryThresholds are day counts for the expiry badge colours.
type ExpiryThresholds struct {
	Critical int `yaml:"critical"`
	Warning  int `yaml:"warning"`
	Notice   int `yaml:"notice"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://certificate-dashboard-deploy.onrender.com",
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8085,
			SessionSecret: "change-me-in-production",
			SessionTTL:    30 * time.Minute,
			LoaderStyle:   LoaderBlob,
			PageSize:      10,
		},
		Dashboard: DashboardConfig{
			DefaultView:  "overview",
			WelcomeToast: true,
			Expiry: ExpiryThresholds{
				Critical: 7,
				Warning:  30,
				Notice:   90,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that would keep the dashboard from starting.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", c.Web.Port)
	}
	if c.Web.PageSize < 0 {
		return fmt.Errorf("web.page_size must not be negative")
	}
	switch c.Web.LoaderStyle {
	case LoaderSpinner, LoaderBlob:
	default:
		return fmt.Errorf("web.loader_style %q: want %s or %s", c.Web.LoaderStyle, LoaderSpinner, LoaderBlob)
	}
	if c.Dashboard.DefaultView == "" {
		return fmt.Errorf("dashboard.default_view is required")
	}
	e := c.Dashboard.Expiry
	if e.Critical < 0 || e.Critical > e.Warning || e.Warning > e.Notice {
		return fmt.Errorf("dashboard.expiry thresholds must satisfy 0 <= critical <= warning <= notice")
	}
	return nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
