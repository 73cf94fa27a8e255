package config

import "time"

// Config holds runtime settings for the todokeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the todokeeper HTTP API.
//   - RequestTimeout: per-request timeout for API calls.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
