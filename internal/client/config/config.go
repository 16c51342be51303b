package config

import "time"

// Config holds runtime settings for the GophDrive CLI.
//
// Units: OnlineCheckInterval and HTTPTimeout are time.Duration values.
// Parallelism is the number of chunks in flight per transfer.
type Config struct {
	ServerURL           string
	HealthAddr          string
	OnlineCheckInterval time.Duration
	Parallelism         int
	HTTPTimeout         time.Duration
	DBPath              string
	DropDir             string
	DropIgnore          []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.Parallelism = 4
	c.HTTPTimeout = 60 * time.Second
	c.DBPath = "gophdrive.db"
	c.DropDir = ""
	c.DropIgnore = []string{".*", "*.tmp", "*.part", "*~"}
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
