package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Zoho       ZohoConfig       `yaml:"zoho"`
	Zoom       ZoomConfig       `yaml:"zoom"`
	Booking    BookingConfig    `yaml:"booking"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Admin      AdminConfig      `yaml:"admin"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// ZohoConfig carries the calendar provider credentials. Secrets are expected
// to arrive via ${ENV} substitution in the YAML.
type ZohoConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	RedirectURI  string `yaml:"redirect_uri"`
	CalendarID   string `yaml:"calendar_id"`
	AccountsURL  string `yaml:"accounts_url"`
	APIBaseURL   string `yaml:"api_base_url"`
}

// ZoomConfig carries the video provider credentials. The meeting step is
// skipped entirely when Enabled is false.
type ZoomConfig struct {
	Enabled      bool   `yaml:"enabled"`
	AccountID    string `yaml:"account_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserID       string `yaml:"user_id"`
	AccountsURL  string `yaml:"accounts_url"`
	APIBaseURL   string `yaml:"api_base_url"`
}

type BookingConfig struct {
	OwnerEmails       string `yaml:"owner_emails"` // comma-separated
	DefaultTimezone   string `yaml:"default_timezone"`
	StartHour         int    `yaml:"start_hour"`
	EndHour           int    `yaml:"end_hour"`
	SlotMinutes       int    `yaml:"slot_minutes"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	CacheTTLSeconds   int    `yaml:"cache_ttl_seconds"`
}

// OwnerList splits the comma-separated owner email list, dropping blanks.
func (b BookingConfig) OwnerList() []string {
	parts := strings.Split(b.OwnerEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type AdminConfig struct {
	APIKey    string          `yaml:"api_key"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars set by the environment win either way.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Substitute ${VAR} references before parsing.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Zoho.ClientID == "" || c.Zoho.ClientSecret == "" {
		return errors.New("zoho client credentials are required")
	}
	if c.Zoho.RefreshToken == "" {
		return errors.New("zoho refresh token is required")
	}
	if c.Zoho.CalendarID == "" {
		return errors.New("zoho calendar id is required")
	}
	if c.Zoom.Enabled {
		if c.Zoom.AccountID == "" || c.Zoom.ClientID == "" || c.Zoom.ClientSecret == "" {
			return errors.New("zoom is enabled but account credentials are incomplete")
		}
	}
	if len(c.Booking.OwnerList()) == 0 {
		return errors.New("at least one owner email is required")
	}
	return ValidateBusinessHours(c.Booking)
}

// ValidateBusinessHours rejects grids that cannot be tiled evenly by the
// slot duration.
func ValidateBusinessHours(b BookingConfig) error {
	if b.StartHour < 0 || b.EndHour > 24 || b.StartHour >= b.EndHour {
		return fmt.Errorf("invalid business hours %d..%d", b.StartHour, b.EndHour)
	}
	if b.SlotMinutes <= 0 {
		return fmt.Errorf("invalid slot duration %d", b.SlotMinutes)
	}
	if (b.EndHour-b.StartHour)*60%b.SlotMinutes != 0 {
		return fmt.Errorf("slot duration %dm does not tile %d..%d evenly",
			b.SlotMinutes, b.StartHour, b.EndHour)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Zoho.AccountsURL == "" {
		c.Zoho.AccountsURL = "https://accounts.zoho.com"
	}
	if c.Zoho.APIBaseURL == "" {
		c.Zoho.APIBaseURL = "https://calendar.zoho.com/api/v1"
	}
	if c.Zoom.AccountsURL == "" {
		c.Zoom.AccountsURL = "https://zoom.us"
	}
	if c.Zoom.APIBaseURL == "" {
		c.Zoom.APIBaseURL = "https://api.zoom.us/v2"
	}
	if c.Zoom.UserID == "" {
		c.Zoom.UserID = "me"
	}

	if c.Booking.DefaultTimezone == "" {
		c.Booking.DefaultTimezone = "America/Chicago"
	}
	if c.Booking.StartHour == 0 && c.Booking.EndHour == 0 {
		c.Booking.StartHour = 9
		c.Booking.EndHour = 17
	}
	if c.Booking.SlotMinutes == 0 {
		c.Booking.SlotMinutes = 30
	}
	if c.Booking.SessionTTLMinutes == 0 {
		c.Booking.SessionTTLMinutes = 30
	}
	if c.Booking.CacheTTLSeconds == 0 {
		c.Booking.CacheTTLSeconds = 60
	}

	if c.Admin.RateLimit.RPS == 0 {
		c.Admin.RateLimit.RPS = 5
	}
	if c.Admin.RateLimit.Burst == 0 {
		c.Admin.RateLimit.Burst = 10
	}
}
