package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	Display struct {
		// Timezone names an IANA zone, or "auto" for the server's local zone.
		Timezone              string
		SecondaryTimezone     string
		ShowSecondaryTimezone bool
		// TimeFormat is "24h" or "12h".
		TimeFormat string
	}

	Grid struct {
		HourHeight   float64
		SnapMinutes  int
		SyncWindowMS int
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

// SnapGraduation returns the drag snap interval as a duration.
func (c *Config) SnapGraduation() time.Duration {
	return time.Duration(c.Grid.SnapMinutes) * time.Minute
}

// SyncWindow returns the coalescing window for outbound writes.
func (c *Config) SyncWindow() time.Duration {
	return time.Duration(c.Grid.SyncWindowMS) * time.Millisecond
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("APP_BASE_URL", "http://localhost:8080")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = dsnFromParts()
	}

	cfg.Display.Timezone = getenvDefault("APP_DISPLAY_TIMEZONE", "auto")
	cfg.Display.SecondaryTimezone = os.Getenv("APP_DISPLAY_SECONDARY_TIMEZONE")
	cfg.Display.ShowSecondaryTimezone = getenvBool("APP_DISPLAY_SHOW_SECONDARY_TIMEZONE", false)
	cfg.Display.TimeFormat = getenvDefault("APP_DISPLAY_TIME_FORMAT", "24h")

	cfg.Grid.HourHeight = getenvFloat("APP_GRID_HOUR_HEIGHT", 80)
	cfg.Grid.SnapMinutes = getenvInt("APP_GRID_SNAP_MINUTES", 15)
	cfg.Grid.SyncWindowMS = getenvInt("APP_SYNC_WINDOW_MS", 250)

	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.Display.TimeFormat != "24h" && cfg.Display.TimeFormat != "12h" {
		return nil, fmt.Errorf("APP_DISPLAY_TIME_FORMAT must be 24h or 12h (got %q)", cfg.Display.TimeFormat)
	}
	if cfg.Grid.HourHeight <= 0 {
		return nil, fmt.Errorf("APP_GRID_HOUR_HEIGHT must be positive (got %v)", cfg.Grid.HourHeight)
	}
	if cfg.Grid.SnapMinutes <= 0 || 60%cfg.Grid.SnapMinutes != 0 {
		return nil, fmt.Errorf("APP_GRID_SNAP_MINUTES must divide an hour evenly (got %d)", cfg.Grid.SnapMinutes)
	}
	if cfg.Grid.SyncWindowMS <= 0 {
		return nil, fmt.Errorf("APP_SYNC_WINDOW_MS must be positive (got %d)", cfg.Grid.SyncWindowMS)
	}
	if cfg.Display.ShowSecondaryTimezone && cfg.Display.SecondaryTimezone == "" {
		return nil, errors.New("APP_DISPLAY_SECONDARY_TIMEZONE is required when the secondary timezone is shown")
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No APP_TRUSTED_PROXIES configured. TimeGrid will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

// dsnFromParts assembles a postgres URL from the discrete APP_DB_* variables.
// It returns "" when any required part is absent; Load reports the error.
func dsnFromParts() string {
	host := os.Getenv("APP_DB_HOST")
	name := os.Getenv("APP_DB_NAME")
	user := os.Getenv("APP_DB_USER")
	password := os.Getenv("APP_DB_PASSWORD")
	if host == "" || name == "" || user == "" || password == "" {
		return ""
	}
	port := getenvDefault("APP_DB_PORT", "5432")
	sslmode := getenvDefault("APP_DB_SSLMODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return f
}

func getenvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
