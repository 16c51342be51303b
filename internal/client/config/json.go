package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
	"github.com/dmitrijs2005/gophdrive/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// and zero values mean "not set".
type JsonConfig struct {
	ServerURL           string          `json:"server_url"`
	HealthAddr          string          `json:"health_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	Parallelism         int             `json:"parallelism"`
	HTTPTimeout         *timex.Duration `json:"http_timeout"`
	DBPath              string          `json:"db_path"`
	DropDir             string          `json:"drop_dir"`
	DropIgnore          []string        `json:"drop_ignore"`
}

// parseJson overlays Config with values loaded from the file named by -c
// or -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.HealthAddr != "" {
		cfg.HealthAddr = jc.HealthAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.Parallelism > 0 {
		cfg.Parallelism = jc.Parallelism
	}
	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.DropDir != "" {
		cfg.DropDir = jc.DropDir
	}
	if jc.DropIgnore != nil {
		cfg.DropIgnore = jc.DropIgnore
	}
}
